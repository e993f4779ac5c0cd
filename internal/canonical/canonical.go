// Package canonical нормализует наборы идентификаторов поставщиков
// для построения ключей кеша.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// Set содержит каноническую форму набора идентификаторов поставщиков.
type Set struct {
	IDs        []string
	Serialized string
	Digest     string
}

// Empty сообщает, пуст ли набор.
func (s Set) Empty() bool {
	return len(s.IDs) == 0
}

// Canonicalize приводит набор идентификаторов к канонической форме:
// сортировка по возрастанию, удаление дубликатов, стабильная сериализация
// и её hex-дайджест. Результат не зависит от порядка и повторов на входе.
func Canonicalize(ids []string) Set {
	uniq := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		uniq[id] = struct{}{}
	}

	normalized := make([]string, 0, len(uniq))
	for id := range uniq {
		normalized = append(normalized, id)
	}
	sort.Strings(normalized)

	// json.Marshal для []string не может вернуть ошибку.
	raw, _ := json.Marshal(normalized)
	sum := sha256.Sum256(raw)

	return Set{
		IDs:        normalized,
		Serialized: string(raw),
		Digest:     hex.EncodeToString(sum[:]),
	}
}
