package documents

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

func draftWithLines(t *testing.T, now time.Time) *Document {
	t.Helper()
	doc := NewDraft(id.New(), testTenant, TypeReceipt, now)
	loc := id.New()
	err := doc.ReplaceLines([]Line{
		{LineID: id.New(), ProductID: id.New(), Quantity: types.NewQuantityFromFloat64(1), ToLocationID: &loc},
	}, now)
	require.NoError(t, err)
	return doc
}

func TestTypeValid(t *testing.T) {
	for _, docType := range []Type{TypeReceipt, TypeDelivery, TypeTransfer, TypeAdjustment} {
		assert.True(t, docType.Valid(), string(docType))
	}
	assert.False(t, Type("RETURN").Valid())
	assert.False(t, Type("").Valid())
}

func TestTypeRemovesStock(t *testing.T) {
	assert.False(t, TypeReceipt.RemovesStock())
	assert.True(t, TypeDelivery.RemovesStock())
	assert.True(t, TypeTransfer.RemovesStock())
	assert.False(t, TypeAdjustment.RemovesStock())
}

func TestDocumentConfirm(t *testing.T) {
	now := time.Now()
	doc := draftWithLines(t, now)

	require.NoError(t, doc.Confirm("RCT-000001", now))
	assert.Equal(t, StatusConfirmed, doc.Status)
	assert.Equal(t, "RCT-000001", doc.Number)
	require.NotNil(t, doc.ConfirmedAt)
	assert.Equal(t, now, *doc.ConfirmedAt)
}

func TestDocumentConfirmRejections(t *testing.T) {
	now := time.Now()

	t.Run("no lines", func(t *testing.T) {
		doc := NewDraft(id.New(), testTenant, TypeReceipt, now)
		err := doc.Confirm("RCT-000001", now)
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	})

	t.Run("empty number", func(t *testing.T) {
		doc := draftWithLines(t, now)
		err := doc.Confirm("", now)
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	})

	t.Run("already confirmed", func(t *testing.T) {
		doc := draftWithLines(t, now)
		require.NoError(t, doc.Confirm("RCT-000001", now))
		err := doc.Confirm("RCT-000002", now)
		assert.True(t, apperror.IsCode(err, apperror.CodeState))
		assert.Equal(t, "RCT-000001", doc.Number)
	})
}

func TestDocumentPost(t *testing.T) {
	now := time.Now()
	doc := draftWithLines(t, now)
	require.NoError(t, doc.Confirm("RCT-000001", now))

	require.NoError(t, doc.Post(now))
	assert.Equal(t, StatusPosted, doc.Status)
	require.NotNil(t, doc.PostedAt)

	// POSTED is terminal.
	assert.True(t, apperror.IsCode(doc.Post(now), apperror.CodeState))
	assert.True(t, apperror.IsCode(doc.Cancel(now), apperror.CodeState))
}

func TestDocumentPostFromDraft(t *testing.T) {
	now := time.Now()
	doc := draftWithLines(t, now)

	err := doc.Post(now)
	assert.True(t, apperror.IsCode(err, apperror.CodeState))
	assert.Equal(t, StatusDraft, doc.Status)
}

func TestDocumentCancel(t *testing.T) {
	now := time.Now()
	doc := draftWithLines(t, now)

	require.NoError(t, doc.Cancel(now))
	assert.Equal(t, StatusCanceled, doc.Status)
	require.NotNil(t, doc.CanceledAt)

	// Repeated cancel is a no-op.
	require.NoError(t, doc.Cancel(now.Add(time.Hour)))
	assert.Equal(t, now, *doc.CanceledAt)
}

func TestDocumentMutationAfterDraft(t *testing.T) {
	now := time.Now()
	doc := draftWithLines(t, now)
	require.NoError(t, doc.Confirm("RCT-000001", now))

	comment := "late edit"
	assert.True(t, apperror.IsCode(doc.UpdateHeader(HeaderPatch{Comment: &comment}, now), apperror.CodeState))
	assert.True(t, apperror.IsCode(doc.ReplaceLines(nil, now), apperror.CodeState))
	assert.True(t, apperror.IsCode(doc.SetPostingDate(now, now), apperror.CodeState))
}

func TestDocumentReplaceLinesRenumbers(t *testing.T) {
	now := time.Now()
	doc := NewDraft(id.New(), testTenant, TypeReceipt, now)
	loc := id.New()

	lines := []Line{
		{LineID: id.New(), ProductID: id.New(), Quantity: types.NewQuantityFromFloat64(1), ToLocationID: &loc, LineNo: 42},
		{LineID: id.New(), ProductID: id.New(), Quantity: types.NewQuantityFromFloat64(2), ToLocationID: &loc},
	}
	require.NoError(t, doc.ReplaceLines(lines, now))

	assert.Equal(t, 1, doc.Lines[0].LineNo)
	assert.Equal(t, 2, doc.Lines[1].LineNo)
}

func TestDocumentStampReservedQuantities(t *testing.T) {
	now := time.Now()
	doc := draftWithLines(t, now)

	doc.StampReservedQuantities()

	require.NotNil(t, doc.Lines[0].ReservedQuantity)
	assert.Equal(t, doc.Lines[0].Quantity, *doc.Lines[0].ReservedQuantity)
}

func TestDocumentEffectivePostingDate(t *testing.T) {
	now := time.Now()
	today := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	explicit := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)
	own := time.Date(2025, 5, 25, 0, 0, 0, 0, time.UTC)

	doc := draftWithLines(t, now)
	assert.Equal(t, today, doc.EffectivePostingDate(nil, today))

	doc.PostingDate = &own
	assert.Equal(t, own, doc.EffectivePostingDate(nil, today))
	assert.Equal(t, explicit, doc.EffectivePostingDate(&explicit, today))
}
