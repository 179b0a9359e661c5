package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	model "github.com/R3kki/scroogecoin/Model"
	"github.com/R3kki/scroogecoin/config"
	"github.com/R3kki/scroogecoin/events"
	"github.com/R3kki/scroogecoin/txhandler"
)

type settleFlags struct {
	pool  string
	batch string
	out   string
}

func settleCommand() *cobra.Command {
	var flags settleFlags

	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Settle one epoch from a pool snapshot and a batch file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				return errors.New("no config found in context")
			}
			return settleRun(cmd.OutOrStdout(), cfg, flags)
		},
	}

	cmd.Flags().StringVar(&flags.pool, "pool", "", "JSON pool snapshot to start from")
	cmd.Flags().StringVar(&flags.batch, "batch", "", "JSON batch of candidate transactions")
	cmd.Flags().StringVar(&flags.out, "out", "", "write the resulting pool snapshot here")
	_ = cmd.MarkFlagRequired("batch")

	return cmd
}

func settleRun(w io.Writer, cfg *config.Config, flags settleFlags) error {
	l := commonLogger(cfg)

	snap, err := loadSnapshot(flags.pool)
	if err != nil {
		return err
	}

	var batch events.TxBatch
	if err := readJSONFile(flags.batch, &batch); err != nil {
		return err
	}

	working, err := openWorkingPool(cfg.Pool)
	if err != nil {
		return err
	}
	defer working.Close()

	handler, err := txhandler.NewTxHandler(
		snap.ToUTXOSet(),
		txhandler.WithWorkingPool(working),
		txhandler.WithLogger(l.New("txhandler")),
	)
	if err != nil {
		return err
	}

	res := handler.SettleEpoch(batch.Transactions)
	printResult(w, res)

	if flags.out == "" {
		return nil
	}

	after, err := model.TakeSnapshot(handler.UTXOPool())
	if err != nil {
		return fmt.Errorf("snapshot working pool: %w", err)
	}
	return writeJSONFile(flags.out, after)
}

func printResult(w io.Writer, res *txhandler.EpochResult) {
	for _, tx := range res.Accepted {
		fmt.Fprintf(w, "accepted %s\n", tx.Txid)
	}
	for _, r := range res.Rejected {
		txid := "<nil>"
		if r.Tx != nil {
			txid = r.Tx.Txid.String()
		}
		fmt.Fprintf(w, "rejected %s %s: %v\n", txid, r.Reason(), r.Err)
	}
}
