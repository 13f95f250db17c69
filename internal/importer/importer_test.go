package importer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseCSV_HeaderAliasesAndBlankRows(t *testing.T) {
	data := "\ufeffHọ tên,Số điện thoại,Email,Nguồn,Unknown\n" +
		"Nguyễn Văn A,0901234567,a@example.com,facebook,x\n" +
		",,,,\n" +
		"Trần Thị B,0912345678,,zalo,y\n"

	rows, err := Parse("leads.csv", strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "Nguyễn Văn A", rows[0].Get(FieldName))
	assert.Equal(t, "0901234567", rows[0].Get(FieldPhone))
	assert.Equal(t, "facebook", rows[0].Get(FieldSource))
	assert.Equal(t, 4, rows[1].Line)
	assert.Equal(t, "", rows[1].Get(FieldEmail))
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Name", "Phone", "Assigned_To", "Value"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Lead One", "0901", "u-1", "1500000"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"Lead Two", "0902", "", ""}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := Parse("LEADS.XLSX", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "u-1", rows[0].Get(FieldAssignedTo))
	assert.Equal(t, "1500000", rows[0].Get(FieldValue))
	assert.Equal(t, "Lead Two", rows[1].Get(FieldName))
	assert.Equal(t, 3, rows[1].Line)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse("leads.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Parse("leads.csv", strings.NewReader("phone,email\n0901,a@b.c\n"))
	assert.ErrorIs(t, err, ErrNoNameColumn)

	_, err = Parse("leads.csv", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptySheet)

	_, err = Parse("leads.xlsx", strings.NewReader("not a zip"))
	assert.Error(t, err)
}
