package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeModule struct {
	name     string
	priority int
	order    *[]string
	err      error
}

func (m *fakeModule) Name() string  { return m.name }
func (m *fakeModule) Priority() int { return m.priority }
func (m *fakeModule) Init(ctx *ModuleContext) error {
	*m.order = append(*m.order, m.name)
	return m.err
}

func withRegistry(t *testing.T) {
	saved := moduleRegistry
	moduleRegistry = make(map[string]Module)
	t.Cleanup(func() { moduleRegistry = saved })
}

func TestInitModulesOrder(t *testing.T) {
	withRegistry(t)
	var order []string
	Register(&fakeModule{name: "payment", priority: 20, order: &order})
	Register(&fakeModule{name: "user", priority: 1, order: &order})
	Register(&fakeModule{name: "order", priority: 15, order: &order})
	Register(&fakeModule{name: "notification", priority: 15, order: &order})

	assert.NoError(t, InitModules(&ModuleContext{}))
	assert.Equal(t, []string{"user", "notification", "order", "payment"}, order)
}

func TestInitModulesStopsOnError(t *testing.T) {
	withRegistry(t)
	var order []string
	Register(&fakeModule{name: "a", priority: 1, order: &order, err: errors.New("boom")})
	Register(&fakeModule{name: "b", priority: 2, order: &order})

	err := InitModules(&ModuleContext{})
	assert.ErrorContains(t, err, "init module a")
	assert.Equal(t, []string{"a"}, order)
}
