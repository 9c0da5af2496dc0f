package protocol

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/annel0/mmo-miner/internal/world"
)

// Кодек полезной нагрузки чанка: сетки сериализуются в бинарный вид,
// сжимаются zstd и кодируются base64 для передачи внутри JSON.
// EncodeAll/DecodeAll потокобезопасны, поэтому энкодер и декодер
// создаются один раз на процесс.
var (
	chunkCompressor   *zstd.Encoder
	chunkDecompressor *zstd.Decoder
)

func init() {
	var err error
	chunkCompressor, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic(fmt.Sprintf("zstd encoder: %v", err))
	}
	chunkDecompressor, err = zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Sprintf("zstd decoder: %v", err))
	}
}

// EncodeHeightData сжимает плоскую сетку высот (row-major, float64 LE)
func EncodeHeightData(heights []float64) string {
	raw := make([]byte, 8*len(heights))
	for i, h := range heights {
		binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(h))
	}
	compressed := chunkCompressor.EncodeAll(raw, nil)
	return base64.StdEncoding.EncodeToString(compressed)
}

// DecodeHeightData восстанавливает сетку высот; expectedLen — ChunkSize²
func DecodeHeightData(encoded string, expectedLen int) ([]float64, error) {
	raw, err := decodePayload(encoded)
	if err != nil {
		return nil, fmt.Errorf("heightData: %w", err)
	}
	if len(raw) != 8*expectedLen {
		return nil, fmt.Errorf("heightData: ожидалось %d байт, получено %d", 8*expectedLen, len(raw))
	}

	heights := make([]float64, expectedLen)
	for i := range heights {
		heights[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
	}
	return heights, nil
}

// EncodeBiomeData сжимает плоскую сетку кодов биомов
func EncodeBiomeData(codes []byte) string {
	compressed := chunkCompressor.EncodeAll(codes, nil)
	return base64.StdEncoding.EncodeToString(compressed)
}

// DecodeBiomeData восстанавливает сетку кодов биомов
func DecodeBiomeData(encoded string, expectedLen int) ([]byte, error) {
	raw, err := decodePayload(encoded)
	if err != nil {
		return nil, fmt.Errorf("biomeData: %w", err)
	}
	if len(raw) != expectedLen {
		return nil, fmt.Errorf("biomeData: ожидалось %d байт, получено %d", expectedLen, len(raw))
	}
	return raw, nil
}

func decodePayload(encoded string) ([]byte, error) {
	compressed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("base64: %w", err)
	}
	raw, err := chunkDecompressor.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return raw, nil
}

// BuildChunkData собирает сообщение chunkData из сгенерированного чанка.
// Список узлов копируется: живая коллекция чанка продолжает мутировать
// после сериализации.
func BuildChunkData(chunk *world.TerrainChunk) *ChunkData {
	nodes := make([]*world.OreNode, len(chunk.OreNodes))
	copy(nodes, chunk.OreNodes)

	return &ChunkData{
		ChunkX:     chunk.Coords.X,
		ChunkZ:     chunk.Coords.Z,
		HeightData: EncodeHeightData(chunk.Heights),
		BiomeData:  EncodeBiomeData(chunk.BiomeCodes()),
		OreNodes:   nodes,
	}
}
