package validation

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestValidCPF(t *testing.T) {
	assert.True(t, ValidCPF("529.982.247-25"))
	assert.True(t, ValidCPF("52998224725"))
	assert.False(t, ValidCPF("529.982.247-24"))
	assert.False(t, ValidCPF("111.111.111-11"))
	assert.False(t, ValidCPF("1234"))
}

func TestValidLuhn(t *testing.T) {
	assert.True(t, ValidLuhn("4111111111111111"))
	assert.True(t, ValidLuhn("4111 1111 1111 1111"))
	assert.False(t, ValidLuhn("4111111111111112"))
	assert.False(t, ValidLuhn("4111-1111-1111-1111"))
	assert.False(t, ValidLuhn("42"))
}

func TestValidExpiry(t *testing.T) {
	now := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)

	assert.True(t, ValidExpiry("05/26", now))
	assert.True(t, ValidExpiry("12/2030", now))
	assert.False(t, ValidExpiry("04/26", now))
	assert.False(t, ValidExpiry("13/27", now))
	assert.False(t, ValidExpiry("0527", now))
	assert.False(t, ValidExpiry("05/202", now))
}

func TestValidMobile(t *testing.T) {
	assert.True(t, ValidMobile("(11) 98765-4321"))
	assert.True(t, ValidMobile("+55 11 98765-4321"))
	assert.False(t, ValidMobile("11 8765-4321"))
	assert.False(t, ValidMobile("01987654321"))
}

func TestRegisterOn(t *testing.T) {
	type checkout struct {
		Document string `validate:"required,cpf"`
		Number   string `validate:"required,luhn"`
		Expiry   string `validate:"required,card_expiry"`
	}
	v := validator.New()
	RegisterOn(v)

	ok := checkout{Document: "52998224725", Number: "4111111111111111", Expiry: "12/99"}
	assert.NoError(t, v.Struct(ok))

	bad := ok
	bad.Document = "12345678900"
	err := v.Struct(bad)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cpf")
}
