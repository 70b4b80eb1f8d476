package dto

import (
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/documents"
)

// DocumentLineRequest is one requested line.
type DocumentLineRequest struct {
	ProductID      string         `json:"productId" binding:"required"`
	Quantity       types.Quantity `json:"quantity"`
	UnitCost       *string        `json:"unitCost,omitempty"`
	FromLocationID *string        `json:"fromLocationId,omitempty"`
	ToLocationID   *string        `json:"toLocationId,omitempty"`
}

// CreateDocumentRequest creates a draft.
type CreateDocumentRequest struct {
	DocumentType   string                `json:"documentType" binding:"required"`
	PartyID        *string               `json:"partyId,omitempty"`
	SourceRef      *string               `json:"sourceRef,omitempty"`
	ScheduledDate  *time.Time            `json:"scheduledDate,omitempty"`
	PostingDate    *time.Time            `json:"postingDate,omitempty"`
	Comment        string                `json:"comment,omitempty"`
	Lines          []DocumentLineRequest `json:"lines"`
	IdempotencyKey string                `json:"idempotencyKey,omitempty"`
}

// UpdateDocumentRequest patches a draft. Nil keeps the current value;
// a non-nil Lines replaces the whole line set.
type UpdateDocumentRequest struct {
	PartyID       *string                `json:"partyId,omitempty"`
	SourceRef     *string                `json:"sourceRef,omitempty"`
	ScheduledDate *time.Time             `json:"scheduledDate,omitempty"`
	PostingDate   *time.Time             `json:"postingDate,omitempty"`
	Comment       *string                `json:"comment,omitempty"`
	Lines         *[]DocumentLineRequest `json:"lines,omitempty"`
}

// ConfirmDocumentRequest carries Confirm options.
type ConfirmDocumentRequest struct {
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

// PostDocumentRequest carries Post options.
type PostDocumentRequest struct {
	PostingDate    *time.Time `json:"postingDate,omitempty"`
	IdempotencyKey string     `json:"idempotencyKey,omitempty"`
}

// CancelDocumentRequest carries Cancel options.
type CancelDocumentRequest struct {
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

func toLineInputs(reqs []DocumentLineRequest) ([]documents.LineInput, error) {
	lines := make([]documents.LineInput, 0, len(reqs))
	for _, lr := range reqs {
		productID, err := ParseID("productId", lr.ProductID)
		if err != nil {
			return nil, err
		}
		from, err := ParseOptionalID("fromLocationId", lr.FromLocationID)
		if err != nil {
			return nil, err
		}
		to, err := ParseOptionalID("toLocationId", lr.ToLocationID)
		if err != nil {
			return nil, err
		}

		var unitCost *types.Money
		if lr.UnitCost != nil && *lr.UnitCost != "" {
			cost, err := types.NewMoneyFromString(*lr.UnitCost)
			if err != nil {
				return nil, apperror.NewValidation("invalid unit cost").
					WithDetail("field", "unitCost").
					WithDetail("value", *lr.UnitCost)
			}
			unitCost = &cost
		}

		lines = append(lines, documents.LineInput{
			ProductID:      productID,
			Quantity:       lr.Quantity,
			UnitCost:       unitCost,
			FromLocationID: from,
			ToLocationID:   to,
		})
	}
	return lines, nil
}

// ToCreateInput converts the request into the service input.
func (r CreateDocumentRequest) ToCreateInput() (documents.CreateInput, error) {
	partyID, err := ParseOptionalID("partyId", r.PartyID)
	if err != nil {
		return documents.CreateInput{}, err
	}
	lines, err := toLineInputs(r.Lines)
	if err != nil {
		return documents.CreateInput{}, err
	}

	return documents.CreateInput{
		Type:           documents.Type(r.DocumentType),
		PartyID:        partyID,
		SourceRef:      r.SourceRef,
		ScheduledDate:  r.ScheduledDate,
		PostingDate:    r.PostingDate,
		Comment:        r.Comment,
		Lines:          lines,
		IdempotencyKey: r.IdempotencyKey,
	}, nil
}

// ToUpdateInput converts the request into the service input.
func (r UpdateDocumentRequest) ToUpdateInput() (documents.UpdateInput, error) {
	partyID, err := ParseOptionalID("partyId", r.PartyID)
	if err != nil {
		return documents.UpdateInput{}, err
	}

	in := documents.UpdateInput{}
	if r.PartyID != nil || r.SourceRef != nil || r.ScheduledDate != nil || r.PostingDate != nil || r.Comment != nil {
		in.Header = &documents.HeaderPatch{
			PartyID:       partyID,
			SourceRef:     r.SourceRef,
			ScheduledDate: r.ScheduledDate,
			PostingDate:   r.PostingDate,
			Comment:       r.Comment,
		}
	}
	if r.Lines != nil {
		lines, err := toLineInputs(*r.Lines)
		if err != nil {
			return documents.UpdateInput{}, err
		}
		in.Lines = &lines
	}
	return in, nil
}
