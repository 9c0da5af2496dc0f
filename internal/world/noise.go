package world

import (
	"github.com/aquilax/go-perlin"
)

// Параметры шума Перлина
const (
	noiseAlpha   = 2.0 // Сглаживание шума
	noiseBeta    = 2.0 // Частота шума
	noiseOctaves = 3   // Количество внутренних октав
)

// NoiseSource — детерминированный источник когерентного 2D-шума.
// Состояние перестановок выводится исключительно из сида, поэтому два
// экземпляра с одинаковым сидом дают побитово одинаковые значения.
// Каждый генератор мира держит собственный экземпляр; глобального
// состояния шума нет.
type NoiseSource struct {
	seed   int64
	perlin *perlin.Perlin
}

// NewNoiseSource создаёт источник шума для указанного сида
func NewNoiseSource(seed int64) *NoiseSource {
	return &NoiseSource{
		seed:   seed,
		perlin: perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, seed),
	}
}

// Seed возвращает сид источника
func (n *NoiseSource) Seed() int64 {
	return n.seed
}

// Noise2D возвращает значение шума в диапазоне [-1, 1].
// Соседние точки дают плавно меняющиеся значения — это требование
// многооктавного суммирования высот.
func (n *NoiseSource) Noise2D(x, y float64) float64 {
	v := n.perlin.Noise2D(x, y)
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
