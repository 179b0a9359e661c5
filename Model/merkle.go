package model

// ComputeMerkleRoot builds a Bitcoin-style merkle tree over the txids,
// duplicating the last node of an odd level.
func ComputeMerkleRoot(txs []*Transaction) Hash {
	if len(txs) == 0 {
		return Hash{}
	}

	level := make([]Hash, len(txs))
	for i, tx := range txs {
		level[i] = tx.Txid
	}

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}

		next := make([]Hash, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			pair := make([]byte, 0, 64)
			pair = append(pair, level[i][:]...)
			pair = append(pair, level[i+1][:]...)
			next = append(next, doubleSHA256(pair))
		}
		level = next
	}

	return level[0]
}
