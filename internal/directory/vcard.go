package directory

import (
	"fmt"
	"io"

	"github.com/emersion/go-vcard"
	"github.com/tartampluch/go-quickevent/internal/config"
)

// ExportVCards writes the directory as a vCard 4.0 stream, one card per
// contact. The merged list is written as-is; the email-uniqueness invariant
// of the merge guarantees one card per address.
func ExportVCards(w io.Writer, contacts []Contact) error {
	enc := vcard.NewEncoder(w)
	for _, c := range contacts {
		card := make(vcard.Card)
		card.SetValue(config.VCardFN, c.Name)
		card.SetValue(config.VCardEmail, c.Email)
		card.SetValue(config.VCardUID, c.ID)
		if c.PhotoURL != "" {
			card.SetValue(config.VCardPhoto, c.PhotoURL)
		}
		vcard.ToV4(card)

		if err := enc.Encode(card); err != nil {
			return fmt.Errorf("%s: %w", config.ErrVCardEncode, err)
		}
	}
	return nil
}
