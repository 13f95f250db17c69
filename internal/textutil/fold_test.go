package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	assert.Equal(t, "nguyen van a", Fold("Nguyễn Văn A"))
	assert.Equal(t, "dang thi hoa", Fold("  Đặng   Thị Hoa "))
	assert.Equal(t, "abc@example.com", Fold("ABC@Example.com"))
	assert.Equal(t, "", Fold(""))
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("Nguyễn Văn A", "van a"))
	assert.True(t, Contains("Nguyễn Văn A", "VĂN"))
	assert.True(t, Contains("0901234567", "0901234"))
	assert.False(t, Contains("Nguyễn Văn A", "van b"))
	assert.True(t, Contains("anything", "  "))
}

func TestSearchText(t *testing.T) {
	text := SearchText("Nguyễn Văn A", "", "0901234567")

	assert.Equal(t, "nguyen van a | 0901234567", text)
	assert.Contains(t, text, Fold("văn a"))
}
