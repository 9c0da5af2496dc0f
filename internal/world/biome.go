package world

// Biome представляет тип биома.
// Закрытое множество меток: все switch по биомам исчерпывающие,
// опечатка в строке не может стать молчаливым no-op.
type Biome uint8

const (
	BiomeDeepValley Biome = iota
	BiomePlains
	BiomeForest
	BiomeDesert
	BiomeHills
	BiomeMountains
)

// Пороги высот для классификации биомов.
// Сравниваются с высотой ПОСЛЕ умножения на HeightScale.
const (
	DeepValleyMax = -2.0 // Ниже — глубокая долина
	PlainsMax     = 0.0  // Ниже — равнины
	MidBandMax    = 3.0  // Средняя полоса: лес либо пустыня по влажности
	HillsMax      = 6.0  // Ниже — холмы, выше — горы
)

// String возвращает каноническую метку биома (используется в wire-протоколе)
func (b Biome) String() string {
	switch b {
	case BiomeDeepValley:
		return "deep_valley"
	case BiomePlains:
		return "plains"
	case BiomeForest:
		return "forest"
	case BiomeDesert:
		return "desert"
	case BiomeHills:
		return "hills"
	case BiomeMountains:
		return "mountains"
	default:
		return "unknown"
	}
}

// BiomePalette возвращает упорядоченный список меток биомов.
// Индекс в списке совпадает с числовым кодом в biomeData.
func BiomePalette() []string {
	return []string{
		BiomeDeepValley.String(),
		BiomePlains.String(),
		BiomeForest.String(),
		BiomeDesert.String(),
		BiomeHills.String(),
		BiomeMountains.String(),
	}
}

// ClassifyBiome определяет биом по высоте и влажности.
// Влажность используется только для разделения средней полосы высот
// на лес (влажно) и пустыню (сухо).
func ClassifyBiome(height, moisture float64) Biome {
	switch {
	case height < DeepValleyMax:
		return BiomeDeepValley
	case height < PlainsMax:
		return BiomePlains
	case height < MidBandMax:
		if moisture > 0 {
			return BiomeForest
		}
		return BiomeDesert
	case height < HillsMax:
		return BiomeHills
	default:
		return BiomeMountains
	}
}
