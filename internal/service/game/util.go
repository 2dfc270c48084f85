package game

import (
	"encoding/json"
	"math/rand/v2"

	"github.com/google/uuid"
)

func GenID() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("Failed to generate UUID: " + err.Error())
	}

	return id.String()
}

// GenShortID 取 UUIDv7 的随机尾部，适合做房间号
func GenShortID() string {
	id := GenID()
	return id[len(id)-8:]
}

// Rand 是状态机使用的随机源
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

// math/rand/v2 的包级函数可以并发调用
func (globalRand) IntN(n int) int {
	return rand.IntN(n)
}

func DefaultRand() Rand {
	return globalRand{}
}

// shuffle 是标准的 Fisher–Yates 洗牌
func shuffle(ids []string, rng Rand) {
	for i := len(ids) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic("Failed to marshal: " + err.Error())
	}

	return data
}
