package energy

import "testing"

type fakeStar struct {
	energy Value
	elemK  uint16
}

func (s fakeStar) StarEnergy() Value { return s.energy }
func (s fakeStar) ElemK() uint16     { return s.elemK }

func TestStepBeginComputesProduction(t *testing.T) {
	en := &Energy{Specs: Specs{Solar: 10, Kwheel: 5}}
	star := fakeStar{energy: 1000, elemK: 20}

	en.StepBegin(star)

	wantSolar := SolarOutput(1000, 10)
	wantKwheel := KwheelOutput(20, 5)
	if en.Produced != wantSolar+wantKwheel {
		t.Fatalf("Produced = %d, want %d", en.Produced, wantSolar+wantKwheel)
	}
	if en.Need != 0 || en.Consumed != 0 {
		t.Fatalf("Need/Consumed not reset: need=%d consumed=%d", en.Need, en.Consumed)
	}
}

func TestConsumeRejectsOverProduction(t *testing.T) {
	en := &Energy{}
	en.Produced = 100

	if !en.Consume(60) {
		t.Fatalf("Consume(60) failed against Produced=100")
	}
	if en.Consume(50) {
		t.Fatalf("Consume(50) succeeded though only 40 remained")
	}
	if en.Consumed != 60 {
		t.Fatalf("Consumed = %d, want 60 (failed consume must not partially apply)", en.Consumed)
	}
	if en.Need != 110 {
		t.Fatalf("Need = %d, want 110 (Need tracks requests regardless of success)", en.Need)
	}
}

func TestStepEndBanksExcessIntoBattery(t *testing.T) {
	en := &Energy{Specs: Specs{Battery: 2}}
	en.Produced = 500
	en.Consumed = 300

	en.StepEnd()

	if en.Item.Battery.Stored != 200 {
		t.Fatalf("Battery.Stored = %d, want 200", en.Item.Battery.Stored)
	}
}

func TestStepEndCapsAtBatteryCapacity(t *testing.T) {
	en := &Energy{Specs: Specs{Battery: 1}} // cap = 1000
	en.Produced = 5000
	en.Consumed = 0

	en.StepEnd()

	if en.Item.Battery.Stored != en.BatteryCap() {
		t.Fatalf("Battery.Stored = %d, want capped at %d", en.Item.Battery.Stored, en.BatteryCap())
	}
}

func TestBatteryRotatesIntoNextTickProduction(t *testing.T) {
	en := &Energy{Specs: Specs{Battery: 1}}
	en.Produced, en.Consumed = 5000, 0
	en.StepEnd()
	stored := en.Item.Battery.Stored
	if stored == 0 {
		t.Fatalf("setup: expected battery to have stored energy")
	}

	en.StepBegin(fakeStar{})
	if en.Item.Battery.Produced != stored {
		t.Fatalf("Battery.Produced = %d, want %d (last tick's Stored)", en.Item.Battery.Produced, stored)
	}
	if en.Item.Battery.Stored != 0 {
		t.Fatalf("Battery.Stored not cleared by StepBegin's rotation")
	}
	if en.Produced < stored {
		t.Fatalf("Produced did not include rotated battery output: %d < %d", en.Produced, stored)
	}
}

func TestFusionSavesExcessUpToCap(t *testing.T) {
	en := &Energy{}
	en.Produced, en.Consumed = 1000, 400 // excess = 600

	saved := en.StepFusion(100, 50)
	if saved != 50 {
		t.Fatalf("StepFusion saved = %d, want capped at 50", saved)
	}
	if en.Item.Fusion.Saved != 50 {
		t.Fatalf("Item.Fusion.Saved = %d, want 50", en.Item.Fusion.Saved)
	}
	if en.Item.Fusion.Next != 100 {
		t.Fatalf("Item.Fusion.Next = %d, want 100", en.Item.Fusion.Next)
	}
}

func TestFusionNoOpWhenNotProducing(t *testing.T) {
	en := &Energy{}
	en.Produced, en.Consumed = 1000, 0
	if saved := en.StepFusion(0, 999); saved != 0 {
		t.Fatalf("StepFusion(0, ...) = %d, want 0", saved)
	}
	if en.Item.Fusion.Next != 0 {
		t.Fatalf("Item.Fusion.Next mutated despite zero production")
	}
}

func TestProduceBurnerIncrementsBothCounters(t *testing.T) {
	en := &Energy{}
	en.ProduceBurner(42)
	if en.Produced != 42 || en.Item.Burner != 42 {
		t.Fatalf("ProduceBurner: Produced=%d Item.Burner=%d, want both 42", en.Produced, en.Item.Burner)
	}
}


