package nasc

import (
	"errors"
	"testing"
)

// Test modules

type connection struct {
	connected bool
	closed    bool
}

func (c *connection) Connect() error {
	c.connected = true
	return nil
}

func (c *connection) Dispose() error {
	c.closed = true
	return nil
}

type BasicModule struct {
	registerCalled bool
}

func (m *BasicModule) Register(b *Builder) error {
	m.registerCalled = true
	return b.Add(MustDescriptor("logger", LifetimeSingleton, Factory(widgetFactory())))
}

type BootableTestModule struct {
	registerCalled bool
	bootCalled     bool
}

func (m *BootableTestModule) Register(b *Builder) error {
	m.registerCalled = true
	return b.Add(MustDescriptor("db", LifetimeSingleton, Factory(func(*Scope) (any, error) {
		return &connection{}, nil
	})))
}

func (m *BootableTestModule) Boot(root *Scope) error {
	m.bootCalled = true
	db, err := root.GetInstance("db")
	if err != nil {
		return err
	}
	return db.(*connection).Connect()
}

type FailingModule struct{}

func (m *FailingModule) Register(b *Builder) error {
	return errors.New("registration failed")
}

type FailingBootModule struct{}

func (m *FailingBootModule) Register(b *Builder) error {
	return nil
}

func (m *FailingBootModule) Boot(root *Scope) error {
	return errors.New("boot failed")
}

type DeferredTestModule struct {
	shouldRegister bool
	registerCalled bool
}

func (m *DeferredTestModule) ShouldRegister(b *Builder) bool {
	return m.shouldRegister
}

func (m *DeferredTestModule) Register(b *Builder) error {
	m.registerCalled = true
	return nil
}

type CompositeModule struct{}

func (m *CompositeModule) Register(b *Builder) error {
	// Register other modules
	return b.Register(&BasicModule{})
}

// Tests

func TestRegisterModule_Basic(t *testing.T) {
	b := NewBuilder()
	module := &BasicModule{}

	if err := b.Register(module); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !module.registerCalled {
		t.Error("Module.Register() was not called")
	}

	root, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer root.Dispose()

	if _, err := root.GetInstance("logger"); err != nil {
		t.Errorf("Module did not register descriptor: %v", err)
	}
}

func TestRegisterModule_Bootable(t *testing.T) {
	b := NewBuilder()
	module := &BootableTestModule{}

	if err := b.Register(module); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if module.bootCalled {
		t.Error("Boot() should not run before Build")
	}

	root, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !module.bootCalled {
		t.Error("Boot() was not called")
	}

	db, _ := root.GetInstance("db")
	conn := db.(*connection)
	if !conn.connected {
		t.Error("Expected boot to connect the database")
	}

	if err := root.Dispose(); err != nil {
		t.Fatalf("Dispose failed: %v", err)
	}
	if !conn.closed {
		t.Error("Expected root dispose to close the database")
	}
}

func TestRegisterModule_Nil(t *testing.T) {
	if err := NewBuilder().Register(nil); err == nil {
		t.Error("Expected error for nil module")
	}
}

func TestRegisterModule_FailingRegistration(t *testing.T) {
	b := NewBuilder()
	err := b.Register(&FailingModule{})
	if err == nil {
		t.Fatal("Expected error for failing module")
	}
	if len(b.Modules()) != 0 {
		t.Error("Failed module should not be recorded")
	}
}

func TestBuild_FailingBoot(t *testing.T) {
	b := NewBuilder()
	var root *Scope
	mustAdd(t, b, MustDescriptor("spy", LifetimeScoped, StrategyFunc(func(s *Scope, d *Descriptor) (Manager, error) {
		root = s
		return &fakeManager{name: d.Name()}, nil
	})))
	if err := b.Register(&spyBootModule{}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := b.Register(&FailingBootModule{}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	scope, err := b.Build()
	if err == nil {
		t.Fatal("Expected error from failing boot")
	}
	if scope != nil {
		t.Error("Expected no scope on boot failure")
	}
	if root == nil || !root.Disposed() {
		t.Error("Expected root to be disposed after boot failure")
	}
}

// spyBootModule activates "spy" so the failing boot has something to tear down.
type spyBootModule struct{}

func (m *spyBootModule) Register(b *Builder) error { return nil }

func (m *spyBootModule) Boot(root *Scope) error {
	_, err := root.ResolveName("spy")
	return err
}

func TestRegisterModule_Duplicate(t *testing.T) {
	b := NewBuilder()
	first := &BasicModule{}
	second := &BasicModule{}

	if err := b.Register(first); err != nil {
		t.Fatalf("First registration failed: %v", err)
	}
	if err := b.Register(second); err != nil {
		t.Fatalf("Duplicate registration should be skipped, got %v", err)
	}
	if second.registerCalled {
		t.Error("Duplicate module type should not register again")
	}
	if n := len(b.Modules()); n != 1 {
		t.Errorf("Expected 1 module, got %d", n)
	}
}

func TestRegisterModule_Deferred_Registered(t *testing.T) {
	b := NewBuilder()
	module := &DeferredTestModule{shouldRegister: true}

	if err := b.Register(module); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !module.registerCalled {
		t.Error("Deferred module should register when ShouldRegister is true")
	}
}

func TestRegisterModule_Deferred_Skipped(t *testing.T) {
	b := NewBuilder()
	module := &DeferredTestModule{shouldRegister: false}

	if err := b.Register(module); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if module.registerCalled {
		t.Error("Deferred module should not register when ShouldRegister is false")
	}
	if len(b.Modules()) != 0 {
		t.Error("Skipped module should not be recorded")
	}
}

func TestRegisterModule_Composite(t *testing.T) {
	b := NewBuilder()
	if err := b.Register(&CompositeModule{}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if n := len(b.Modules()); n != 2 {
		t.Errorf("Expected composite and nested module, got %d", n)
	}
	if descs := b.Descriptors(); len(descs) != 1 || descs[0].Name() != "logger" {
		t.Errorf("Expected nested module's descriptor, got %v", descs)
	}
}

func TestBuilderAdd_Duplicates(t *testing.T) {
	b := NewBuilder()
	mustAdd(t, b, MustDescriptor("a", LifetimeScoped, Factory(widgetFactory())))

	err := b.Add(MustDescriptor("a", LifetimeTransient, Factory(widgetFactory())))
	var exists *DescriptorExistsError
	if !errors.As(err, &exists) {
		t.Fatalf("Expected DescriptorExistsError, got %v", err)
	}
	if !errors.Is(b.Add(nil), ErrNilDescriptor) {
		t.Error("Expected ErrNilDescriptor for nil descriptor")
	}
	if n := len(b.Descriptors()); n != 1 {
		t.Errorf("Expected 1 descriptor, got %d", n)
	}
}

func TestBuild_AppliesOptions(t *testing.T) {
	b := NewBuilder()
	mustAdd(t, b, MustDescriptor("svc", LifetimeScoped, Factory(widgetFactory())))

	var activated []string
	root, err := b.Build(WithObserver(func(e ActivationEvent) {
		activated = append(activated, e.Descriptor.Name())
	}))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer root.Dispose()

	_, _ = root.GetInstance("svc")
	if len(activated) != 1 || activated[0] != "svc" {
		t.Errorf("Expected observer to see svc, got %v", activated)
	}

	if _, err := NewBuilder().Build(WithLogger(nil)); err == nil {
		t.Error("Expected invalid option to fail Build")
	}
}

func mustAdd(t *testing.T, b *Builder, d *Descriptor) {
	t.Helper()
	if err := b.Add(d); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
}
