package events

import (
	model "github.com/R3kki/scroogecoin/Model"
	"github.com/R3kki/scroogecoin/txhandler"
)

const TopicEpochSettled = "epoch.settled"

type RejectedTx struct {
	Txid   string `json:"txid"`
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

type EpochSettled struct {
	Height     uint64       `json:"height"`
	Hash       model.Hash   `json:"hash"`
	PrevHash   model.Hash   `json:"prevHash"`
	MerkleRoot model.Hash   `json:"merkleRoot"`
	Accepted   []model.Hash `json:"accepted"`
	Rejected   []RejectedTx `json:"rejected"`
}

func NewEpochSettled(epoch *model.Epoch, res *txhandler.EpochResult) EpochSettled {
	ev := EpochSettled{
		Height:     epoch.Height,
		Hash:       epoch.Hash,
		PrevHash:   epoch.PrevHash,
		MerkleRoot: epoch.MerkleRoot,
		Accepted:   make([]model.Hash, 0, len(res.Accepted)),
		Rejected:   make([]RejectedTx, 0, len(res.Rejected)),
	}

	for _, tx := range res.Accepted {
		ev.Accepted = append(ev.Accepted, tx.Txid)
	}
	for _, r := range res.Rejected {
		txid := "<nil>"
		if r.Tx != nil {
			txid = r.Tx.Txid.String()
		}
		ev.Rejected = append(ev.Rejected, RejectedTx{
			Txid:   txid,
			Reason: r.Reason().String(),
			Error:  r.Err.Error(),
		})
	}
	return ev
}
