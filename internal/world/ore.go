package world

import (
	"encoding/json"
	"fmt"
)

// OreType представляет категорию рудного узла.
// Закрытое множество: iron/copper — обычные руды, crypto_* — редкие.
type OreType uint8

const (
	OreIron OreType = iota
	OreCopper
	OreCryptoBTC
	OreCryptoETH
)

// String возвращает каноническую метку типа руды (используется в wire-протоколе)
func (t OreType) String() string {
	switch t {
	case OreIron:
		return "iron"
	case OreCopper:
		return "copper"
	case OreCryptoBTC:
		return "crypto_btc"
	case OreCryptoETH:
		return "crypto_eth"
	default:
		return "unknown"
	}
}

// BaseValue возвращает стоимость кредитов за единицу руды
func (t OreType) BaseValue() float64 {
	switch t {
	case OreIron:
		return 1
	case OreCopper:
		return 2
	case OreCryptoBTC:
		return 50
	case OreCryptoETH:
		return 30
	default:
		return 1
	}
}

// BaseAmount возвращает базовый объём месторождения
func (t OreType) BaseAmount() float64 {
	switch t {
	case OreIron:
		return 800
	case OreCopper:
		return 600
	case OreCryptoBTC:
		return 100
	case OreCryptoETH:
		return 150
	default:
		return 500
	}
}

// IsCrypto возвращает true для редких крипто-руд (повышенное базовое качество)
func (t OreType) IsCrypto() bool {
	return t == OreCryptoBTC || t == OreCryptoETH
}

// ParseOreType восстанавливает тип руды из канонической метки
func ParseOreType(label string) (OreType, error) {
	switch label {
	case "iron":
		return OreIron, nil
	case "copper":
		return OreCopper, nil
	case "crypto_btc":
		return OreCryptoBTC, nil
	case "crypto_eth":
		return OreCryptoETH, nil
	default:
		return OreIron, fmt.Errorf("неизвестный тип руды: %q", label)
	}
}

// MarshalJSON сериализует тип руды как каноническую метку
func (t OreType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON восстанавливает тип руды из метки
func (t *OreType) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	parsed, err := ParseOreType(label)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// OreNode представляет истощаемое месторождение руды.
// Создаётся при генерации чанка; Remaining монотонно убывает при добыче,
// инвариант 0 <= Remaining <= MaxOre. MaxOre и Quality после создания
// не меняются. При Remaining == 0 узел удаляется из чанка навсегда.
type OreNode struct {
	ID        string  `json:"id"`
	Type      OreType `json:"type"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	Remaining float64 `json:"remaining"`
	MaxOre    float64 `json:"maxOre"`
	Quality   float64 `json:"quality"`
}

// Depleted возвращает true, если месторождение исчерпано
func (n *OreNode) Depleted() bool {
	return n.Remaining <= 0
}

// Extract списывает до requested единиц руды и возвращает фактически
// добытый объём. Remaining не уходит ниже нуля.
func (n *OreNode) Extract(requested float64) float64 {
	if requested <= 0 || n.Remaining <= 0 {
		return 0
	}
	mined := requested
	if mined > n.Remaining {
		mined = n.Remaining
	}
	n.Remaining -= mined
	return mined
}
