package ui_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-quickevent/internal/config"
)

// TestI18nIntegrity ensures that every translation key defined in config.go
// actually exists in the locale JSON files.
func TestI18nIntegrity(t *testing.T) {
	keysToCheck := []string{
		config.TKeyWinTitle,
		config.TKeyWinSettings,
		config.TKeyWinContacts,
		config.TKeyMenuNewEvent,
		config.TKeyMenuContacts,
		config.TKeyMenuRefresh,
		config.TKeyMenuSettings,
		config.TKeyTrayStatus,
		config.TKeyTrayStatusZero,
		config.TKeyNotifRefresh,
		config.TKeyNotifCreated,
		config.TKeyNotifError,
		config.TKeyLblLanguage,
		config.TKeyHelpLanguage,
		config.TKeyLblMinutes,
		config.TKeyLblRefresh,
		config.TKeyHelpInterval,
		config.TKeyLblGeneral,
		config.TKeyLblAccount,
		config.TKeyLblModel,
		config.TKeyLblClientID,
		config.TKeyHelpClientID,
		config.TKeyLblClientSec,
		config.TKeyLblCalendar,
		config.TKeyHelpCalendar,
		config.TKeyLblOllamaHost,
		config.TKeyHelpOllamaHost,
		config.TKeyLblOllamaModel,
		config.TKeyHelpOllamaModel,
		config.TKeyLblPort,
		config.TKeyHelpPort,
		config.TKeyLblFooter,
		config.TKeyBtnSave,
		config.TKeyBtnCancel,
		config.TKeyBtnSignIn,
		config.TKeyBtnDraft,
		config.TKeyBtnCreate,
		config.TKeyBtnRetry,
		config.TKeyBtnDiscard,
		config.TKeyBtnExportICS,
		config.TKeyBtnExportVCF,
		config.TKeyLblRequest,
		config.TKeyHelpRequest,
		config.TKeyLblDrafts,
		config.TKeyStateIdle,
		config.TKeyStateDrafting,
		config.TKeyStateReview,
		config.TKeyStateCreating,
		config.TKeyStateCreated,
		config.TKeyStateFailed,
		config.TKeyDraftAllDay,
		config.TKeyColName,
		config.TKeyColEmail,
		config.TKeyFormatTime,
		config.TKeyErrPortReq,
		config.TKeyErrPortNum,
		config.TKeyErrPortRange,
		config.TKeyErrModelReq,
		config.TKeyErrClientIDReq,
	}

	definedKeys := make(map[string]bool)
	for _, k := range keysToCheck {
		definedKeys[k] = true
	}

	for _, locale := range []string{"active.en.json", "active.fr.json"} {
		t.Run(locale, func(t *testing.T) {
			path := filepath.Join("locales", locale)
			content, err := os.ReadFile(path)
			if os.IsNotExist(err) {
				// Fallback for running tests from a different CWD
				path = filepath.Join("..", "..", "internal", "ui", "locales", locale)
				content, err = os.ReadFile(path)
			}
			require.NoErrorf(t, err, "Must load %s", locale)

			var jsonMap map[string]interface{}
			err = json.Unmarshal(content, &jsonMap)
			require.NoError(t, err, "JSON must be valid")

			for key := range definedKeys {
				_, exists := jsonMap[key]
				assert.Truef(t, exists, "Key '%s' defined in config.go is missing in %s", key, locale)
			}

			// Check for orphan keys in JSON (keys that exist in JSON but not in Go)
			for jsonKey := range jsonMap {
				if strings.HasPrefix(jsonKey, "_") {
					continue
				}
				if _, exists := definedKeys[jsonKey]; !exists {
					t.Logf("Warning: Key '%s' exists in JSON but is not checked in the test suite (might be unused)", jsonKey)
				}
			}
		})
	}
}
