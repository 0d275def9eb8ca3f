package menu_test

import (
	"testing"

	"github.com/aretw0/motherlink/pkg/domain"
	"github.com/aretw0/motherlink/pkg/menu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type actionSet struct {
	immediate map[string]bool
	terminal  map[string]bool
}

func (a actionSet) HasImmediate(id string) bool { return a.immediate[id] }
func (a actionSet) HasTerminal(id string) bool  { return a.terminal[id] }

func allActions() actionSet {
	return actionSet{
		immediate: map[string]bool{
			domain.ActionSwitchEnglish:     true,
			domain.ActionSwitchKinyarwanda: true,
		},
		terminal: map[string]bool{
			domain.ActionRegistrationComplete: true,
			domain.ActionUpdateInfo:           true,
			domain.ActionSubmitEmergency:      true,
			domain.ActionConfirmDistress:      true,
			domain.ActionAIGuidance:           true,
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	b := menu.NewBuilder(domain.LocaleEnglish)
	b.Add("welcome").Option("1", "Go", domain.Menu("a"))
	b.Add("a").Option("1", "Switch", domain.Immediate(domain.ActionSwitchEnglish))

	c, err := b.Build()
	require.NoError(t, err)
	assert.NoError(t, menu.Validate(c, allActions()))
}

func TestValidate_DanglingReferences(t *testing.T) {
	b := menu.NewBuilder(domain.LocaleEnglish)
	b.Add("welcome").
		Option("1", "Ghost", domain.Menu("ghost")).
		Option("2", "Unknown action", domain.Terminal("nope")).
		Option("3", "Wrong kind", domain.Terminal(domain.ActionSwitchEnglish))

	c, err := b.Build()
	require.NoError(t, err)

	err = menu.Validate(c, allActions())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDanglingReference)
	assert.Contains(t, err.Error(), "found 3 errors")
	assert.Contains(t, err.Error(), "ghost")
	assert.Contains(t, err.Error(), "terminal:nope")
}

func TestValidate_NilActionsSkipsActionChecks(t *testing.T) {
	b := menu.NewBuilder(domain.LocaleEnglish)
	b.Add("welcome").Option("1", "Anything", domain.Terminal("nope"))

	c, err := b.Build()
	require.NoError(t, err)
	assert.NoError(t, menu.Validate(c, nil))
}

func TestValidate_Unreachable(t *testing.T) {
	b := menu.NewBuilder(domain.LocaleEnglish)
	b.Add("welcome").Title("Hi").End()
	b.Add("island").Title("Lost")

	c, err := b.Build()
	require.NoError(t, err)

	err = menu.Validate(c, nil)
	assert.ErrorIs(t, err, menu.ErrUnreachable)
	assert.NotErrorIs(t, err, domain.ErrDanglingReference)
}
