package interfaces

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngineConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *EngineConfig
		wantErr bool
	}{
		{"nil", nil, true},
		{"valid", &EngineConfig{ServerFrequency: 60, MaxVirtualVoices: 32}, false},
		{"bounds", &EngineConfig{ServerFrequency: MaxServerFrequency, MaxVirtualVoices: MinMaxVirtualVoices}, false},
		{"frequency too low", &EngineConfig{ServerFrequency: 0.5, MaxVirtualVoices: 32}, true},
		{"frequency too high", &EngineConfig{ServerFrequency: 2000, MaxVirtualVoices: 32}, true},
		{"no voices", &EngineConfig{ServerFrequency: 60}, true},
		{"too many voices", &EngineConfig{ServerFrequency: 60, MaxVirtualVoices: 5000}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
