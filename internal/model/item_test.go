package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemDecimalAccess(t *testing.T) {
	it := &Item{Kind: ItemLabor}

	assert.False(t, it.Decimal(FieldTonBonus).Valid)
	require.True(t, it.SetDecimal(FieldTonBonus, decimal.NewNullDecimal(decimal.NewFromInt(5))))
	assert.Equal(t, "5", FormatDecimal(it.Decimal(FieldTonBonus)))

	assert.False(t, it.SetDecimal(FieldSpec, decimal.NullDecimal{}))
	assert.False(t, it.Decimal(FieldSpec).Valid)
}

func TestItemTextAccess(t *testing.T) {
	it := &Item{Kind: ItemLogistics}

	ok, err := it.SetText(FieldDescription, "crane hire")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "crane hire", it.Text(FieldDescription))

	ok, err = it.SetText(FieldLogisticsType, "installation")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "installation", it.Text(FieldLogisticsType))

	_, err = it.SetText(FieldLogisticsType, "teleport")
	assert.Error(t, err)

	ok, err = it.SetText(FieldSubtotal, "1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFieldIsNumeric(t *testing.T) {
	assert.True(t, FieldSubtotal.IsNumeric())
	assert.True(t, FieldWeightKg.IsNumeric())
	assert.False(t, FieldUnit.IsNumeric())
	assert.False(t, FieldDescription.IsNumeric())
}

func TestParseDecimal(t *testing.T) {
	d, err := ParseDecimal("")
	require.NoError(t, err)
	assert.False(t, d.Valid)

	d, err = ParseDecimal("12.50")
	require.NoError(t, err)
	assert.True(t, d.Valid)
	assert.True(t, d.Decimal.Equal(decimal.RequireFromString("12.5")))

	_, err = ParseDecimal("twelve")
	assert.Error(t, err)
}

func TestFileRecordUsable(t *testing.T) {
	f := &FileRecord{ParseStatus: ParseParsed, ValidationStatus: ValidationOK}
	assert.True(t, f.Usable())

	f.ValidationStatus = ValidationConfirmed
	assert.True(t, f.Usable())

	f.ValidationStatus = ValidationWarning
	assert.False(t, f.Usable())

	f.ValidationStatus = ValidationOK
	f.Locked = true
	assert.False(t, f.Usable())
	assert.False(t, f.Editable())

	f = &FileRecord{ParseStatus: ParsePending, ValidationStatus: ValidationOK}
	assert.False(t, f.Usable())
}
