package reconcile

import (
	"iter"
	"sort"
)

// DefaultBatchSize is the key-window size used by the batched variant when
// no positive size is given.
const DefaultBatchSize = 1000

// StreamDiscrepancies yields discrepancies one at a time instead of
// materializing the full result set. Both key indices are still built up
// front, since membership testing requires full key visibility on the
// opposite side; the memory saved is the discrepancy object graph, not
// the indices. Classification is identical to FindAllDiscrepancies:
// collecting the streamed results reproduces the whole-collection result
// exactly.
//
// Missing keys stream first, then extra, then mismatches, each in key
// order. Index-build failures surface before any iteration begins.
func StreamDiscrepancies(source, target []Record, key KeySpec, opts DiffOptions) (iter.Seq[Discrepancy], error) {
	sourceIndex, err := BuildIndex(source, key, opts.FoldKeys)
	if err != nil {
		return nil, err
	}
	targetIndex, err := BuildIndex(target, key, opts.FoldKeys)
	if err != nil {
		return nil, err
	}

	sourceKeys := sortedKeys(sourceIndex)
	targetKeys := sortedKeys(targetIndex)

	return func(yield func(Discrepancy) bool) {
		for _, k := range sourceKeys {
			if _, ok := targetIndex[k]; ok {
				continue
			}
			if !yield(Discrepancy{Kind: KindMissing, Key: k, Row: sourceIndex[k]}) {
				return
			}
		}

		for _, k := range targetKeys {
			if _, ok := sourceIndex[k]; ok {
				continue
			}
			if !yield(Discrepancy{Kind: KindExtra, Key: k, Row: targetIndex[k]}) {
				return
			}
		}

		for _, k := range sourceKeys {
			tgt, ok := targetIndex[k]
			if !ok {
				continue
			}
			m, unequal := compareCommon(k, sourceIndex[k], tgt, opts)
			if !unequal {
				continue
			}
			if !yield(Discrepancy{Kind: KindMismatch, Key: k, Row: sourceIndex[k], Mismatch: &m}) {
				return
			}
		}
	}, nil
}

// CollectDiscrepancies drains a discrepancy stream back into the
// aggregated three-set form.
func CollectDiscrepancies(seq iter.Seq[Discrepancy]) *Discrepancies {
	d := &Discrepancies{
		Missing:    []Record{},
		Extra:      []Record{},
		Mismatches: []Mismatch{},
	}
	for item := range seq {
		switch item.Kind {
		case KindMissing:
			d.Missing = append(d.Missing, item.Row)
		case KindExtra:
			d.Extra = append(d.Extra, item.Row)
		case KindMismatch:
			d.Mismatches = append(d.Mismatches, *item.Mismatch)
		}
	}
	return d
}

// FindAllDiscrepanciesBatched computes running discrepancy totals over
// fixed-size key windows without retaining row payloads. Missing and
// extra counts are exact: each window is tested against the full opposite
// index. Mismatch counting pairs positionally aligned windows of the two
// sorted key lists, so a common key whose positions fall in different
// windows is never compared; when the two key sets diverge this can
// undercount mismatches. StreamDiscrepancies gives exact counts under the
// same index-memory bound and should be preferred when exactness matters.
func FindAllDiscrepanciesBatched(source, target []Record, key KeySpec, batchSize int, opts DiffOptions) (*BatchedCounts, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	sourceIndex, err := BuildIndex(source, key, opts.FoldKeys)
	if err != nil {
		return nil, err
	}
	targetIndex, err := BuildIndex(target, key, opts.FoldKeys)
	if err != nil {
		return nil, err
	}

	sourceKeys := sortedKeys(sourceIndex)
	targetKeys := sortedKeys(targetIndex)

	counts := &BatchedCounts{}
	limit := len(sourceKeys)
	if len(targetKeys) > limit {
		limit = len(targetKeys)
	}

	for offset := 0; offset < limit; offset += batchSize {
		sourceWindow := keyWindow(sourceKeys, offset, batchSize)
		targetWindow := keyWindow(targetKeys, offset, batchSize)

		for _, k := range sourceWindow {
			if _, ok := targetIndex[k]; !ok {
				counts.MissingCount++
			}
		}
		for _, k := range targetWindow {
			if _, ok := sourceIndex[k]; !ok {
				counts.ExtraCount++
			}
		}

		inTargetWindow := make(map[Key]struct{}, len(targetWindow))
		for _, k := range targetWindow {
			inTargetWindow[k] = struct{}{}
		}
		for _, k := range sourceWindow {
			if _, ok := inTargetWindow[k]; !ok {
				continue
			}
			if !EqualRows(sourceIndex[k], targetIndex[k], opts.Compare) {
				counts.MismatchCount++
			}
		}
	}

	return counts, nil
}

func keyWindow(keys []Key, offset, size int) []Key {
	if offset >= len(keys) {
		return nil
	}
	end := offset + size
	if end > len(keys) {
		end = len(keys)
	}
	return keys[offset:end]
}

func sortedKeys(index map[Key]Record) []Key {
	keys := make([]Key, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
