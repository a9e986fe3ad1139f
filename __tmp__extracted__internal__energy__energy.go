// Package energy implements the per-chunk energy tick described in
// spec.md §4.6, grounded field-for-field on
// _examples/original_source/src/game/energy.c and energy.h.
package energy

// Value is the simulation's energy unit (im_energy in the original).
type Value = uint64

// Specs are the static per-chunk energy generator ratings a user installs;
// they do not change tick to tick.
type Specs struct {
	Solar   uint8
	Kwheel  uint8
	Battery uint8
}

// BatteryStorageMul is energy_battery_mul from energy.h: battery capacity
// is Battery rating times this multiplier.
const BatteryStorageMul Value = 1000

// SolarEnergyDiv is energy_solar_div from energy.h.
const SolarEnergyDiv Value = 1000

// KwheelEnergyDiv is energy_kwheel_div from energy.h.
const KwheelEnergyDiv Value = 10

// fusionItem tracks the item.fusion.{next,saved,produced} fields: next
// accumulates this tick's excess for next tick's production; saved is the
// running total banked across the tick; produced is what step_begin
// rotated in from the previous tick's next.
type fusionItem struct {
	Next     Value
	Saved    Value
	Produced Value
}

// batteryItem tracks item.battery.{produced,stored}.
type batteryItem struct {
	Produced Value
	Stored   Value
}

// Energy is the per-chunk energy accounting state (struct energy in the
// original).
type Energy struct {
	Specs

	Need     Value
	Produced Value
	Consumed Value

	Item struct {
		Burner Value
		Fusion fusionItem
		Battery batteryItem
	}
}

// StarScanner reports a star's energy output and element-K yield, the two
// inputs the solar/kwheel generators scale against. Chunks hold a
// reference to their parent star; this interface lets energy stay
// decoupled from the world package's star type.
type StarScanner interface {
	StarEnergy() Value
	ElemK() uint16
}

// BatteryCap returns the battery's storage capacity: battery rating times
// BatteryStorageMul (energy_battery_cap in the original).
func (en *Energy) BatteryCap() Value {
	return Value(en.Battery) * BatteryStorageMul
}

// SolarOutput computes a solar generator's output for one tick
// (energy_solar_output / energy_prod_solar).
func SolarOutput(starEnergy Value, solar uint8) Value {
	return (starEnergy * Value(solar)) / SolarEnergyDiv
}

func (en *Energy) prodSolar(star StarScanner) Value {
	return SolarOutput(star.StarEnergy(), en.Solar)
}

// KwheelOutput computes a K-wheel generator's output for one tick
// (energy_kwheel_output / energy_prod_kwheel).
func KwheelOutput(elemK uint16, kwheel uint8) Value {
	return (Value(elemK) * Value(kwheel)) / KwheelEnergyDiv
}

func (en *Energy) prodKwheel(star StarScanner) Value {
	return KwheelOutput(star.ElemK(), en.Kwheel)
}

// StepBegin zeroes the per-tick counters, rotates the fusion and battery
// item accumulators, and computes this tick's total production. It must
// run before any active item steps (spec.md §4.6, preserved step order).
func (en *Energy) StepBegin(star StarScanner) {
	en.Need = 0
	en.Produced = 0
	en.Consumed = 0
	en.Item.Burner = 0
	en.Item.Fusion.Saved = 0

	en.Item.Fusion.Produced, en.Item.Fusion.Next = en.Item.Fusion.Next, 0
	en.Item.Battery.Produced, en.Item.Battery.Stored = en.Item.Battery.Stored, 0

	en.Produced = en.Item.Fusion.Produced + en.Item.Battery.Produced +
		en.prodSolar(star) + en.prodKwheel(star)
}

// Consume debits value from the tick's production budget, recording the
// request against Need regardless of outcome. It fails (and leaves
// Consumed unchanged) once Consumed would exceed Produced.
func (en *Energy) Consume(value Value) bool {
	en.Need += value
	if en.Consumed+value > en.Produced {
		return false
	}
	en.Consumed += value
	return true
}

// ProduceBurner records energy produced by a burner-type active item; it
// adds to both Produced and the item.burner counter (energy_produce_burner).
func (en *Energy) ProduceBurner(produced Value) {
	en.Produced += produced
	en.Item.Burner += produced
}

// min64 is a small local helper; the original reaches for legion_min, a
// C macro with no Go equivalent worth importing a library for.
func min64(a, b Value) Value {
	if a < b {
		return a
	}
	return b
}

// StepFusion runs a fusion reactor for one tick. cap bounds how much of
// this tick's excess energy the reactor may bank toward the next tick's
// production (energy_step_fusion). Call once per fusion item between
// per-item Step calls and StepEnd. Fusion output is counted across two
// ticks (Fusion.Next becomes next tick's production in StepBegin while
// Fusion.Saved records part of this tick's excess); that carry-over is
// kept as the model's hysteresis and is not corrected.
func (en *Energy) StepFusion(produced, cap Value) Value {
	if produced == 0 {
		return 0
	}
	en.Item.Fusion.Next += produced

	save := en.Produced - en.Consumed
	save -= min64(save, en.BatteryCap())
	save -= min64(save, en.Item.Fusion.Saved)
	save = min64(save, cap)

	en.Item.Fusion.Saved += save
	return save
}

// StepEnd banks this tick's unconsumed production into the battery, capped
// at BatteryCap. It must run after every active item and after
// chunk_ports_step (spec.md §4.6, preserved step order).
func (en *Energy) StepEnd() {
	excess := en.Produced - en.Consumed
	en.Item.Battery.Stored = min64(excess, en.BatteryCap())
}


