package delivery

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-delivery/core"
	"github.com/goliatone/go-delivery/transport"
)

// AdapterPack groups transport adapters and factories so downstream
// modules can register a whole provider surface in one call.
type AdapterPack struct {
	Name      string
	Adapters  []core.TransportAdapter
	Factories map[string]transport.AdapterFactory
}

type CommandQueryBundleFactory func(service CommandQueryService) (any, error)

// ExtensionHooks collects adapter packs and command/query bundles
// contributed by downstream modules before the service is assembled.
type ExtensionHooks struct {
	mu sync.RWMutex

	adapterPacks map[string]AdapterPack
	bundles      map[string]CommandQueryBundleFactory
}

func NewExtensionHooks() *ExtensionHooks {
	return &ExtensionHooks{
		adapterPacks: map[string]AdapterPack{},
		bundles:      map[string]CommandQueryBundleFactory{},
	}
}

func (h *ExtensionHooks) RegisterAdapterPack(pack AdapterPack) error {
	if h == nil {
		return fmt.Errorf("delivery: extension hooks are nil")
	}
	name := strings.TrimSpace(pack.Name)
	if name == "" {
		return fmt.Errorf("delivery: adapter pack name is required")
	}
	if len(pack.Adapters) == 0 && len(pack.Factories) == 0 {
		return fmt.Errorf("delivery: adapter pack %q has no adapters", name)
	}

	normalized := AdapterPack{
		Name:     name,
		Adapters: append([]core.TransportAdapter(nil), pack.Adapters...),
	}
	if len(pack.Factories) > 0 {
		normalized.Factories = make(map[string]transport.AdapterFactory, len(pack.Factories))
		for kind, factory := range pack.Factories {
			normalized.Factories[kind] = factory
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.adapterPacks[name]; exists {
		return fmt.Errorf("delivery: adapter pack %q already registered", name)
	}
	h.adapterPacks[name] = normalized
	return nil
}

func (h *ExtensionHooks) RegisterCommandQueryBundle(
	name string,
	factory CommandQueryBundleFactory,
) error {
	if h == nil {
		return fmt.Errorf("delivery: extension hooks are nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("delivery: command/query bundle name is required")
	}
	if factory == nil {
		return fmt.Errorf("delivery: command/query bundle %q factory is required", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.bundles[name]; exists {
		return fmt.Errorf("delivery: command/query bundle %q already registered", name)
	}
	h.bundles[name] = factory
	return nil
}

// ApplyAdapterPacks registers every collected adapter and factory on the
// transport registry in deterministic pack order.
func (h *ExtensionHooks) ApplyAdapterPacks(registry *transport.Registry) error {
	if h == nil {
		return nil
	}
	if registry == nil {
		return fmt.Errorf("delivery: transport registry is required")
	}

	for _, pack := range h.AdapterPacks() {
		for _, adapter := range pack.Adapters {
			if adapter == nil {
				return fmt.Errorf("delivery: adapter pack %q contains nil adapter", pack.Name)
			}
			if err := registry.Register(adapter); err != nil {
				return err
			}
		}
		kinds := make([]string, 0, len(pack.Factories))
		for kind := range pack.Factories {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			if err := registry.RegisterFactory(kind, pack.Factories[kind]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *ExtensionHooks) BuildCommandQueryBundles(
	service CommandQueryService,
) (map[string]any, error) {
	if h == nil {
		return map[string]any{}, nil
	}
	if service == nil {
		return nil, fmt.Errorf("delivery: command/query service is required")
	}

	h.mu.RLock()
	names := make([]string, 0, len(h.bundles))
	for name := range h.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	factories := make(map[string]CommandQueryBundleFactory, len(h.bundles))
	for name, factory := range h.bundles {
		factories[name] = factory
	}
	h.mu.RUnlock()

	result := make(map[string]any, len(names))
	for _, name := range names {
		bundle, err := factories[name](service)
		if err != nil {
			return nil, err
		}
		result[name] = bundle
	}
	return result, nil
}

func (h *ExtensionHooks) AdapterPacks() []AdapterPack {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.adapterPacks))
	for name := range h.adapterPacks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]AdapterPack, 0, len(names))
	for _, name := range names {
		pack := h.adapterPacks[name]
		copied := AdapterPack{
			Name:     pack.Name,
			Adapters: append([]core.TransportAdapter(nil), pack.Adapters...),
		}
		if len(pack.Factories) > 0 {
			copied.Factories = make(map[string]transport.AdapterFactory, len(pack.Factories))
			for kind, factory := range pack.Factories {
				copied.Factories[kind] = factory
			}
		}
		out = append(out, copied)
	}
	return out
}

func (h *ExtensionHooks) BundleNames() []string {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.bundles))
	for name := range h.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
