package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/mmo-miner/internal/world"
)

func TestChunkCodec_HeightRoundTrip(t *testing.T) {
	heights := []float64{0, -2.5, 13.75, 1e-9, -12345.678}

	encoded := EncodeHeightData(heights)
	decoded, err := DecodeHeightData(encoded, len(heights))
	require.NoError(t, err)
	assert.Equal(t, heights, decoded, "высоты должны пережить кодирование без потерь")
}

func TestChunkCodec_LengthMismatch(t *testing.T) {
	encoded := EncodeHeightData([]float64{1, 2, 3})
	_, err := DecodeHeightData(encoded, 4)
	assert.Error(t, err, "несовпадение длины сетки должно давать ошибку")

	encodedBiomes := EncodeBiomeData([]byte{0, 1, 2})
	_, err = DecodeBiomeData(encodedBiomes, 9)
	assert.Error(t, err)
}

func TestChunkCodec_BadInput(t *testing.T) {
	_, err := DecodeHeightData("не base64 вовсе", 1)
	assert.Error(t, err)

	_, err = DecodeBiomeData("AAAA", 1) // валидный base64, но не zstd
	assert.Error(t, err)
}

func TestBuildChunkData(t *testing.T) {
	wg, err := world.NewWorldGenerator(world.WorldConfig{
		Seed:         12345,
		ChunkSize:    16,
		HeightScale:  10,
		OreSpawnRate: 0.05,
		MaxOreNodes:  10,
	})
	require.NoError(t, err)

	chunk := wg.GenerateChunk(2, -3)
	msg := BuildChunkData(chunk)

	assert.Equal(t, 2, msg.ChunkX)
	assert.Equal(t, -3, msg.ChunkZ)
	assert.Len(t, msg.OreNodes, len(chunk.OreNodes))

	heights, err := DecodeHeightData(msg.HeightData, 16*16)
	require.NoError(t, err)
	assert.Equal(t, chunk.Heights, heights, "сетка высот должна восстанавливаться")

	codes, err := DecodeBiomeData(msg.BiomeData, 16*16)
	require.NoError(t, err)
	assert.Equal(t, chunk.BiomeCodes(), codes, "сетка биомов должна восстанавливаться")
}

func TestEnvelope_RoundTrip(t *testing.T) {
	env, err := NewEnvelope(MsgMineOre, MineOreRequest{OreNodeID: "ore_0_0_1", MiningPower: 25})
	require.NoError(t, err)

	data, err := json.Marshal(env)
	require.NoError(t, err)

	var parsed Envelope
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, MsgMineOre, parsed.Type)

	var req MineOreRequest
	require.NoError(t, parsed.DecodeInto(&req))
	assert.Equal(t, "ore_0_0_1", req.OreNodeID)
	assert.Equal(t, 25.0, req.MiningPower)
}
