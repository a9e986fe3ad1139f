package users

import "testing"

func TestNewRegistryCreatesAdminWithFullAccess(t *testing.T) {
	r := NewRegistry()
	admin, ok := r.ByID(0)
	if !ok {
		t.Fatalf("admin account not created")
	}
	if admin.Access != AccessSet(^uint64(0)) {
		t.Fatalf("admin access = %#x, want all bits set", admin.Access)
	}
}

func TestCreateRejectsDuplicateAtom(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Create(1); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Create(1); err != ErrAtomTaken {
		t.Fatalf("Create with duplicate atom = %v, want ErrAtomTaken", err)
	}
}

func TestCreateAssignsLowestFreeID(t *testing.T) {
	r := NewRegistry() // admin takes id 0
	u, err := r.Create(1)
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != 1 {
		t.Fatalf("ID = %d, want 1", u.ID)
	}
}

func TestAuthUserRequiresMatchingPrivateToken(t *testing.T) {
	r := NewRegistry()
	u, _ := r.Create(1)
	if !r.AuthUser(u.ID, u.Private) {
		t.Fatalf("AuthUser rejected the correct private token")
	}
	if r.AuthUser(u.ID, u.Private+1) {
		t.Fatalf("AuthUser accepted a wrong token")
	}
}

func TestGrantAddsGranterBitToGranteeAccess(t *testing.T) {
	r := NewRegistry()
	a, _ := r.Create(1)
	b, _ := r.Create(2)

	if !r.Grant(b.ID, a.Public) {
		t.Fatalf("Grant failed with a's valid public token")
	}
	if !b.Access.Contains(a.ID) {
		t.Fatalf("b's access set does not include a's id after Grant")
	}
}

func TestGrantFailsOnUnknownToken(t *testing.T) {
	r := NewRegistry()
	b, _ := r.Create(2)
	if r.Grant(b.ID, Token(0xdeadbeef)) {
		t.Fatalf("Grant succeeded with an unrecognized token")
	}
}
