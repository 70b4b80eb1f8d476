package documents

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/registers/stock"
)

func TestLineDeltas(t *testing.T) {
	from := id.New()
	to := id.New()
	five := types.NewQuantityFromFloat64(5)

	tests := []struct {
		name    string
		docType Type
		line    Line
		want    []Delta
	}{
		{
			name:    "receipt adds at destination",
			docType: TypeReceipt,
			line:    Line{Quantity: five, ToLocationID: &to},
			want:    []Delta{{LocationID: to, Quantity: five, Reason: stock.ReasonReceipt}},
		},
		{
			name:    "delivery removes from source",
			docType: TypeDelivery,
			line:    Line{Quantity: five, FromLocationID: &from},
			want:    []Delta{{LocationID: from, Quantity: five.Neg(), Reason: stock.ReasonShipment}},
		},
		{
			name:    "transfer writes both sides",
			docType: TypeTransfer,
			line:    Line{Quantity: five, FromLocationID: &from, ToLocationID: &to},
			want: []Delta{
				{LocationID: from, Quantity: five.Neg(), Reason: stock.ReasonTransfer},
				{LocationID: to, Quantity: five, Reason: stock.ReasonTransfer},
			},
		},
		{
			name:    "adjustment in",
			docType: TypeAdjustment,
			line:    Line{Quantity: five, ToLocationID: &to},
			want:    []Delta{{LocationID: to, Quantity: five, Reason: stock.ReasonAdjustment}},
		},
		{
			name:    "adjustment out",
			docType: TypeAdjustment,
			line:    Line{Quantity: five, FromLocationID: &from},
			want:    []Delta{{LocationID: from, Quantity: five.Neg(), Reason: stock.ReasonAdjustment}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LineDeltas(tt.docType, tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLineDeltasErrors(t *testing.T) {
	loc := id.New()
	five := types.NewQuantityFromFloat64(5)

	tests := []struct {
		name     string
		docType  Type
		line     Line
		wantCode string
	}{
		{"receipt without destination", TypeReceipt, Line{Quantity: five}, apperror.CodeLocationRequired},
		{"delivery without source", TypeDelivery, Line{Quantity: five}, apperror.CodeLocationRequired},
		{"transfer missing one side", TypeTransfer, Line{Quantity: five, FromLocationID: &loc}, apperror.CodeLocationRequired},
		{"adjustment with both locations", TypeAdjustment, Line{Quantity: five, FromLocationID: &loc, ToLocationID: &loc}, apperror.CodeValidation},
		{"adjustment with no location", TypeAdjustment, Line{Quantity: five}, apperror.CodeValidation},
		{"unknown type", Type("BOGUS"), Line{Quantity: five}, apperror.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LineDeltas(tt.docType, tt.line)
			assert.True(t, apperror.IsCode(err, tt.wantCode))
		})
	}
}

func TestBuildMoves(t *testing.T) {
	now := time.Now()
	postingDate := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	from := id.New()
	to := id.New()

	doc := NewDraft(id.New(), testTenant, TypeTransfer, now)
	require.NoError(t, doc.ReplaceLines([]Line{
		{LineID: id.New(), ProductID: id.New(), Quantity: types.NewQuantityFromFloat64(3), FromLocationID: &from, ToLocationID: &to},
		{LineID: id.New(), ProductID: id.New(), Quantity: types.NewQuantityFromFloat64(7), FromLocationID: &from, ToLocationID: &to},
	}, now))

	moves, err := BuildMoves(doc, postingDate, now, id.UUIDGenerator{})
	require.NoError(t, err)
	require.Len(t, moves, 4)

	for i, mv := range moves {
		assert.Equal(t, testTenant, mv.TenantID, i)
		assert.Equal(t, postingDate, mv.PostingDate, i)
		assert.Equal(t, string(TypeTransfer), mv.DocumentType, i)
		assert.Equal(t, doc.ID, mv.DocumentID, i)
		assert.False(t, id.IsNil(mv.ID), i)
	}

	assert.Equal(t, doc.Lines[0].LineID, moves[0].LineID)
	assert.Equal(t, types.NewQuantityFromFloat64(3).Neg(), moves[0].QuantityDelta)
	assert.Equal(t, types.NewQuantityFromFloat64(3), moves[1].QuantityDelta)
	assert.Equal(t, doc.Lines[1].LineID, moves[2].LineID)
}

func TestBuildMovesPropagatesLineError(t *testing.T) {
	now := time.Now()
	doc := NewDraft(id.New(), testTenant, TypeDelivery, now)
	require.NoError(t, doc.ReplaceLines([]Line{
		{LineID: id.New(), ProductID: id.New(), Quantity: types.NewQuantityFromFloat64(1)},
	}, now))

	_, err := BuildMoves(doc, now, now, id.UUIDGenerator{})
	assert.True(t, apperror.IsCode(err, apperror.CodeLocationRequired))
}
