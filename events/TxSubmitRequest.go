package events

import model "github.com/R3kki/scroogecoin/Model"

const TopicTxSubmit = "tx.submit"

type TxSubmitRequest struct {
	Transaction *model.Transaction `json:"transaction"`
}

// TxBatch is one epoch's candidates, in submission order.
type TxBatch struct {
	Transactions []*model.Transaction `json:"transactions"`
}
