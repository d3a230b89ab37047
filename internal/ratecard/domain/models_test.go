package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveCarrierNamePrecedence(t *testing.T) {
	card := RateCard{CarrierID: "day-ross", Name: "Day & Ross Freight", CarrierName: "Day & Ross"}
	assert.Equal(t, "Day & Ross", card.EffectiveCarrierName())

	card.CarrierName = ""
	assert.Equal(t, "Day & Ross Freight", card.EffectiveCarrierName())

	card.Name = ""
	assert.Equal(t, "day-ross", card.EffectiveCarrierName())
}
