package credential

// LSFAccepted is the ledger flag bit set on a credential object once the
// subject has accepted it. Credentials without it are not valid for use.
const LSFAccepted uint32 = 0x00010000

// Descriptor is the on-ledger credential object as returned by an
// account_objects query. Field names follow the ledger's JSON shape.
type Descriptor struct {
	LedgerEntryType   string `json:"LedgerEntryType"`
	CredentialType    string `json:"CredentialType"`
	Issuer            string `json:"Issuer"`
	Subject           string `json:"Subject"`
	URI               string `json:"URI,omitempty"`
	Expiration        uint32 `json:"Expiration,omitempty"`
	Flags             uint32 `json:"Flags"`
	OwnerNode         string `json:"OwnerNode,omitempty"`
	PreviousTxnID     string `json:"PreviousTxnID"`
	PreviousTxnLgrSeq uint32 `json:"PreviousTxnLgrSeq"`
	Index             string `json:"index"`
}

// Accepted reports whether the subject has accepted this credential.
func (d Descriptor) Accepted() bool {
	return d.Flags&LSFAccepted == LSFAccepted
}

// View is the caller-facing projection of a credential object, with its URI
// metadata decoded when possible.
type View struct {
	CredentialType    string    `json:"credentialType"`
	Issuer            string    `json:"issuer"`
	Subject           string    `json:"subject"`
	URI               string    `json:"uri,omitempty"`
	Metadata          *Metadata `json:"metadata"`
	Expire            uint32    `json:"expire,omitempty"`
	Flags             uint32    `json:"flags"`
	OwnerNode         string    `json:"ownerNode,omitempty"`
	PreviousTxnID     string    `json:"previousTxnID"`
	PreviousTxnLgrSeq uint32    `json:"previousTxnLgrSeq"`
	Index             string    `json:"index"`
}

// NewView projects a descriptor into its caller-facing shape. A URI that
// fails to decode degrades to nil metadata; a single corrupt credential must
// not abort a listing.
func NewView(d Descriptor) View {
	var metadata *Metadata
	if d.URI != "" {
		if decoded, err := DecodeMetadata(d.URI); err == nil {
			metadata = decoded
		}
	}
	return View{
		CredentialType:    d.CredentialType,
		Issuer:            d.Issuer,
		Subject:           d.Subject,
		URI:               d.URI,
		Metadata:          metadata,
		Expire:            d.Expiration,
		Flags:             d.Flags,
		OwnerNode:         d.OwnerNode,
		PreviousTxnID:     d.PreviousTxnID,
		PreviousTxnLgrSeq: d.PreviousTxnLgrSeq,
		Index:             d.Index,
	}
}
