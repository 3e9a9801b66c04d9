package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "explorer":
		return explorerTemplate, nil
	case "engine":
		return engineTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const explorerTemplate = `# futctl runtime configuration.
# mode: train (fit and persist the model), explore (load, or train when
# missing, then serve sessions), full (always retrain, then serve).
mode = "explore"
target = "surface.poly"

# Engine link.
address = "127.0.0.1:2000"
max_connect_attempts = 10
fail_fast = false
connect_timeout_ms = 5000
handshake_timeout_ms = 5000
retry_delay_ms = 100

# Round loop.
rounds = 100
continue_on_fault = false
admin_listen_addr = ""
admin_cors_origins = ["http://localhost:3000"]

# Model and dataset. seed drives weight init, minibatch shuffling, and
# posterior draws.
hidden_units = 50
grid_points = 2500
threshold = 0.5
store_root = "local/models/bnn_expl"
seed = 1

train_epochs = 2
train_batch_size = 32
train_learn_rate = 0.01
train_kl_weight = 0.000001
train_test_frac = 0.1

graphics = false
plots_dir = "local/plots"
`

const engineTemplate = `# probectl explorer stand-in configuration.
addr = "127.0.0.1:2000"
dimensions = 2
sessions = 5
points_per_session = 100
seed = 1
end_trailer = true
`
