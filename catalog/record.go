package catalog

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/spf13/cast"

	"gamechat-rag/models"
)

const defaultLabel = "-"

var effectKeyPattern = regexp.MustCompile(`^effect_(\d+)$`)

// NormalizeRecord converts one raw dataset object into a CardRecord. It reports
// false when the object has no usable identifier.
func NormalizeRecord(item map[string]interface{}) (models.CardRecord, bool) {
	rawID, ok := item["id"]
	if !ok || rawID == nil {
		return models.CardRecord{}, false
	}
	id, err := cast.ToStringE(rawID)
	if err != nil || id == "" {
		return models.CardRecord{}, false
	}

	record := models.CardRecord{
		ID:          id,
		Name:        stringField(item, "name", ""),
		Class:       stringField(item, "class", defaultLabel),
		Rarity:      stringField(item, "rarity", defaultLabel),
		Cost:        intField(item, "cost"),
		Attack:      intField(item, "attack"),
		HP:          intField(item, "hp"),
		Effects:     effectSlots(item),
		Keywords:    keywords(item),
		ImageBefore: stringField(item, "image_before", ""),
		ImageAfter:  stringField(item, "image_after", ""),
	}
	return record, true
}

func stringField(item map[string]interface{}, key, fallback string) string {
	value, ok := item[key]
	if !ok || value == nil {
		return fallback
	}
	s, err := cast.ToStringE(value)
	if err != nil {
		return fallback
	}
	return s
}

func intField(item map[string]interface{}, key string) int {
	value, ok := item[key]
	if !ok || value == nil {
		return 0
	}
	n, err := cast.ToIntE(value)
	if err != nil {
		return 0
	}
	return n
}

func keywords(item map[string]interface{}) []string {
	value, ok := item["keywords"]
	if !ok || value == nil {
		return []string{}
	}
	list, err := cast.ToStringSliceE(value)
	if err != nil {
		return []string{}
	}
	return list
}

// effectSlots collects non-empty effect_<n> fields sorted by n
func effectSlots(item map[string]interface{}) []models.EffectSlot {
	slots := []models.EffectSlot{}
	for key, value := range item {
		match := effectKeyPattern.FindStringSubmatch(key)
		if match == nil || value == nil {
			continue
		}
		slot, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		text, err := cast.ToStringE(value)
		if err != nil || text == "" {
			continue
		}
		slots = append(slots, models.EffectSlot{Slot: slot, Text: text})
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Slot < slots[j].Slot })
	return slots
}
