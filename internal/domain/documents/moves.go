package documents

import (
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/registers/stock"
)

// Delta is one signed quantity change produced by posting a line.
type Delta struct {
	LocationID id.ID
	Quantity   types.Quantity
	Reason     stock.ReasonCode
}

// LineDeltas maps (documentType, line) to its ledger deltas. Pure function:
// posting behavior per type lives here and nowhere else.
//
//	RECEIPT    → +quantity at To, reason RECEIPT
//	DELIVERY   → −quantity at From, reason SHIPMENT
//	TRANSFER   → −quantity at From and +quantity at To, reason TRANSFER
//	ADJUSTMENT → +quantity at To, or −quantity at From, reason ADJUSTMENT
func LineDeltas(docType Type, ln Line) ([]Delta, error) {
	switch docType {
	case TypeReceipt:
		if ln.ToLocationID == nil {
			return nil, apperror.NewLocationRequired("receipt line has no destination location").
				WithDetail("line_id", ln.LineID.String())
		}
		return []Delta{{LocationID: *ln.ToLocationID, Quantity: ln.Quantity, Reason: stock.ReasonReceipt}}, nil

	case TypeDelivery:
		if ln.FromLocationID == nil {
			return nil, apperror.NewLocationRequired("delivery line has no source location").
				WithDetail("line_id", ln.LineID.String())
		}
		return []Delta{{LocationID: *ln.FromLocationID, Quantity: ln.Quantity.Neg(), Reason: stock.ReasonShipment}}, nil

	case TypeTransfer:
		if ln.FromLocationID == nil || ln.ToLocationID == nil {
			return nil, apperror.NewLocationRequired("transfer line needs both source and destination").
				WithDetail("line_id", ln.LineID.String())
		}
		return []Delta{
			{LocationID: *ln.FromLocationID, Quantity: ln.Quantity.Neg(), Reason: stock.ReasonTransfer},
			{LocationID: *ln.ToLocationID, Quantity: ln.Quantity, Reason: stock.ReasonTransfer},
		}, nil

	case TypeAdjustment:
		switch {
		case ln.ToLocationID != nil && ln.FromLocationID == nil:
			return []Delta{{LocationID: *ln.ToLocationID, Quantity: ln.Quantity, Reason: stock.ReasonAdjustment}}, nil
		case ln.FromLocationID != nil && ln.ToLocationID == nil:
			return []Delta{{LocationID: *ln.FromLocationID, Quantity: ln.Quantity.Neg(), Reason: stock.ReasonAdjustment}}, nil
		default:
			return nil, apperror.NewValidation("adjustment line needs exactly one location").
				WithDetail("line_id", ln.LineID.String())
		}

	default:
		return nil, apperror.NewValidation("unknown document type").
			WithDetail("document_type", string(docType))
	}
}

// BuildMoves generates the full ledger batch for a document being posted.
func BuildMoves(doc *Document, postingDate time.Time, createdAt time.Time, gen id.Generator) ([]stock.Move, error) {
	moves := make([]stock.Move, 0, len(doc.Lines))
	for _, ln := range doc.Lines {
		deltas, err := LineDeltas(doc.Type, ln)
		if err != nil {
			return nil, err
		}
		for _, d := range deltas {
			moves = append(moves, stock.Move{
				ID:            gen.NewID(),
				TenantID:      doc.TenantID,
				PostingDate:   postingDate,
				ProductID:     ln.ProductID,
				LocationID:    d.LocationID,
				QuantityDelta: d.Quantity,
				DocumentType:  string(doc.Type),
				DocumentID:    doc.ID,
				LineID:        ln.LineID,
				Reason:        d.Reason,
				CreatedAt:     createdAt,
			})
		}
	}
	return moves, nil
}
