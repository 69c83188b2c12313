package tracker

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"StockPredictor/internal/model"
)

// LoadState reads the signal state from a JSON file. Returns an empty state if the file doesn't exist.
func LoadState(filePath string) (*model.SignalState, error) {
	state := &model.SignalState{Symbols: map[string]*model.SymbolState{}}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}
	if state.Symbols == nil {
		state.Symbols = map[string]*model.SymbolState{}
	}
	return state, nil
}

// SaveState writes the signal state to a JSON file.
func SaveState(filePath string, state *model.SignalState) error {
	state.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(filePath, data, 0644)
}
