package model

// DecodeError records a log that matched a definition but failed to decode.
type DecodeError struct {
	ChainID     uint64  `json:"chain_id"`
	BlockNumber uint64  `json:"block_number"`
	TxHash      string  `json:"tx_hash"`
	LogIndex    uint64  `json:"log_index"`
	Address     string  `json:"address"`
	Topic0      string  `json:"topic0"`
	SubKind     SubKind `json:"sub_kind,omitempty"`
	Error       string  `json:"error"`
}

// NewDecodeError builds a diagnostic record for log.
func NewDecodeError(log RawLog, subKind SubKind, err error) DecodeError {
	return DecodeError{
		ChainID:     log.ChainID,
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash.Hex(),
		LogIndex:    log.LogIndex,
		Address:     log.Address.Hex(),
		Topic0:      log.Topic0().Hex(),
		SubKind:     subKind,
		Error:       err.Error(),
	}
}
