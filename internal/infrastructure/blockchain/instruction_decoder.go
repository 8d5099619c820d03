package blockchain

import (
	"encoding/json"

	"wallet-bundle-analyzer/internal/domain/entity"
	"wallet-bundle-analyzer/internal/infrastructure/logger"

	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// InstructionDecoder converts jsonParsed instructions into domain instructions
type InstructionDecoder struct {
	logger *logger.Logger
}

// NewInstructionDecoder creates a new instruction decoder
func NewInstructionDecoder(logger *logger.Logger) *InstructionDecoder {
	return &InstructionDecoder{
		logger: logger.WithComponent("instruction-decoder"),
	}
}

// DecodeInstructions decodes the top-level instructions of a parsed transaction.
// Instructions whose parsed payload is not a {type, info} object keep only their program.
func (d *InstructionDecoder) DecodeInstructions(instructions []*rpc.ParsedInstruction) []entity.Instruction {
	out := make([]entity.Instruction, 0, len(instructions))
	for _, inst := range instructions {
		if inst == nil {
			continue
		}
		decoded := entity.Instruction{
			ProgramID: inst.ProgramId.String(),
			Program:   inst.Program,
		}
		if inst.Parsed != nil {
			raw, err := inst.Parsed.MarshalJSON()
			if err != nil {
				d.logger.Debug("Failed to marshal parsed instruction",
					zap.String("program", decoded.ProgramID),
					zap.Error(err))
			} else {
				decoded.Parsed = d.decodeParsed(raw)
			}
		}
		out = append(out, decoded)
	}
	return out
}

// decodeParsed reads the {type, info} envelope of a parsed instruction
func (d *InstructionDecoder) decodeParsed(raw []byte) *entity.ParsedInstructionInfo {
	var envelope struct {
		Type string          `json:"type"`
		Info json.RawMessage `json:"info"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Type == "" {
		return nil
	}

	parsed := &entity.ParsedInstructionInfo{Type: envelope.Type}
	if len(envelope.Info) == 0 {
		return parsed
	}

	var info struct {
		Source      string `json:"source"`
		Destination string `json:"destination"`
		NewAccount  string `json:"newAccount"`
		Lamports    uint64 `json:"lamports"`
	}
	if err := json.Unmarshal(envelope.Info, &info); err != nil {
		d.logger.Debug("Unrecognised instruction info",
			zap.String("type", envelope.Type),
			zap.Error(err))
		return parsed
	}
	parsed.Info = entity.InstructionInfo{
		Source:      info.Source,
		Destination: info.Destination,
		NewAccount:  info.NewAccount,
		Lamports:    info.Lamports,
	}
	return parsed
}
