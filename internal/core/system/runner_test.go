package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	name  string
	phase Phase
	log   *[]string
}

func (r *recorder) Phase() Phase { return r.phase }

func (r *recorder) Update(time.Duration) { *r.log = append(*r.log, r.name) }

func TestRunner_PhaseOrderThenRegistrationOrder(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(&recorder{"regen", PhaseRegen, &log})
	r.Register(&recorder{"dots", PhaseEffects, &log})
	r.Register(&recorder{"cleanup", PhaseCleanup, &log})
	r.Register(&recorder{"ai", PhaseAI, &log})
	r.Register(&recorder{"travel", PhaseAI, &log})

	r.Tick(time.Second)
	assert.Equal(t, []string{"dots", "ai", "travel", "regen", "cleanup"}, log)
}

func TestRunner_TickPhase(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(&recorder{"regen", PhaseRegen, &log})
	r.Register(&recorder{"ai", PhaseAI, &log})

	r.TickPhase(PhaseAI, 0)
	assert.Equal(t, []string{"ai"}, log)
	assert.Equal(t, 2, r.Len())
}
