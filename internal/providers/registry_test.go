package providers

import (
	"sync"
	"testing"
)

func TestRegistry(t *testing.T) {
	t.Run("register and get", func(t *testing.T) {
		r := NewRegistry()
		mock := NewMockAnnotator()

		r.Register("test", mock)

		got, err := r.Get("test")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got != mock {
			t.Error("got different annotator than registered")
		}
	})

	t.Run("get nonexistent", func(t *testing.T) {
		r := NewRegistry()
		if _, err := r.Get("nonexistent"); err == nil {
			t.Error("expected error for nonexistent annotator")
		}
	})

	t.Run("list and has", func(t *testing.T) {
		r := NewRegistry()
		r.Register("b", NewMockAnnotator())
		r.Register("a", NewMockAnnotator())

		list := r.List()
		if len(list) != 2 || list[0] != "a" {
			t.Errorf("List() = %v, want [a b]", list)
		}
		if !r.Has("a") || r.Has("c") {
			t.Error("Has() returned wrong result")
		}
		r.Unregister("a")
		if r.Has("a") {
			t.Error("Has() = true after Unregister")
		}
	})

	t.Run("concurrent access", func(t *testing.T) {
		r := NewRegistry()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				r.Register("concurrent", NewMockAnnotator())
			}()
			go func() {
				defer wg.Done()
				r.Get("concurrent") // May fail, that's ok
			}()
		}
		wg.Wait()
	})
}

func TestNewRegistryFromConfig(t *testing.T) {
	t.Run("mock provider", func(t *testing.T) {
		r, err := NewRegistryFromConfig(RegistryConfig{Provider: MockName}, nil)
		if err != nil {
			t.Fatalf("NewRegistryFromConfig() error = %v", err)
		}
		a, err := r.Default()
		if err != nil {
			t.Fatalf("Default() error = %v", err)
		}
		if a.Name() != MockName {
			t.Errorf("expected mock, got %s", a.Name())
		}
		if r.Has(OpenAIName) {
			t.Error("openai should not be registered when mock is selected")
		}
	})

	t.Run("openai provider", func(t *testing.T) {
		r, err := NewRegistryFromConfig(RegistryConfig{
			Provider: OpenAIName,
			OpenAI:   OpenAIConfig{BaseURL: "http://localhost:8000/v1", Model: "tagger"},
		}, nil)
		if err != nil {
			t.Fatalf("NewRegistryFromConfig() error = %v", err)
		}
		a, err := r.Default()
		if err != nil {
			t.Fatalf("Default() error = %v", err)
		}
		oa, ok := a.(*OpenAIAnnotator)
		if !ok {
			t.Fatalf("expected *OpenAIAnnotator, got %T", a)
		}
		if oa.Model() != "tagger" || oa.BatchSize() != DefaultBatchSize {
			t.Errorf("unexpected settings: model=%s batch=%d", oa.Model(), oa.BatchSize())
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		if _, err := NewRegistryFromConfig(RegistryConfig{Provider: "bogus"}, nil); err == nil {
			t.Error("expected error for unknown provider")
		}
	})
}

func TestRegistry_Reload(t *testing.T) {
	cfg := RegistryConfig{Provider: OpenAIName, OpenAI: OpenAIConfig{Model: "m1"}}
	r, err := NewRegistryFromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("NewRegistryFromConfig() error = %v", err)
	}
	first, _ := r.Get(OpenAIName)

	if err := r.Reload(cfg); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	same, _ := r.Get(OpenAIName)
	if same != first {
		t.Error("unchanged config should keep the existing annotator")
	}

	cfg.OpenAI.Model = "m2"
	if err := r.Reload(cfg); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	updated, _ := r.Get(OpenAIName)
	if updated == first {
		t.Error("changed model should recreate the annotator")
	}

	if err := r.Reload(RegistryConfig{Provider: MockName}); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if r.Has(OpenAIName) {
		t.Error("openai should be removed after switching to mock")
	}
}
