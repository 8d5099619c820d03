package database

import (
	"context"
	"fmt"
	"time"

	"wallet-bundle-analyzer/internal/domain/entity"
	"wallet-bundle-analyzer/internal/domain/repository"
	"wallet-bundle-analyzer/internal/infrastructure/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

const (
	saveBundleRunQuery = `
		MERGE (r:BundleRun {run_id: $run_id})
		SET r.started_at = datetime($started_at),
			r.finished_at = datetime($finished_at),
			r.suspicion_score = $suspicion_score,
			r.risk_level = $risk_level,
			r.warning_count = $warning_count
	`

	saveWalletsQuery = `
		MATCH (r:BundleRun {run_id: $run_id})
		UNWIND $wallets AS w
		MERGE (n:Wallet {address: w.address})
		SET n.score = w.score,
			n.badge = w.badge,
			n.role = w.role,
			n.funding_source = w.funding_source,
			n.age_days = w.age_days,
			n.balance_sol = w.balance_sol,
			n.total_transactions = w.total_transactions,
			n.last_analyzed = datetime($finished_at)
		MERGE (n)-[:IN_BUNDLE]->(r)
	`

	saveFundersQuery = `
		UNWIND $funders AS f
		MERGE (dst:Wallet {address: f.to})
		MERGE (src:Wallet {address: f.from})
		SET src.exchange = CASE WHEN f.exchange = '' THEN src.exchange ELSE f.exchange END
		MERGE (dst)-[e:FUNDED_BY {signature: f.signature}]->(src)
		SET e.amount_sol = f.amount_sol,
			e.timestamp = f.timestamp,
			e.source = f.source,
			e.confidence = f.confidence
	`

	saveTransfersQuery = `
		UNWIND $transfers AS t
		MERGE (a:Wallet {address: t.from})
		MERGE (b:Wallet {address: t.to})
		MERGE (a)-[e:SENT_TO {signature: t.signature}]->(b)
		SET e.amount_sol = t.amount_sol,
			e.timestamp = t.timestamp
	`

	walletConnectionsQuery = `
		MATCH (a:Wallet)-[e:SENT_TO]->(b:Wallet)
		WHERE a.address = $address OR b.address = $address
		RETURN a.address AS from, b.address AS to, e.amount_sol AS amount_sol,
			e.timestamp AS timestamp, e.signature AS signature
		ORDER BY e.timestamp DESC
		LIMIT $limit
	`

	knownConnectionsQuery = `
		MATCH (a:Wallet)-[e:SENT_TO]->(b:Wallet)
		WHERE a.address IN $addresses AND b.address IN $addresses AND a.address <> b.address
		RETURN a.address AS from, b.address AS to, e.amount_sol AS amount_sol,
			e.timestamp AS timestamp, e.signature AS signature
		ORDER BY e.timestamp
	`
)

// Neo4JBundleRepository stores analyzed bundles as a bubble graph of wallets, funders and transfers
type Neo4JBundleRepository struct {
	client *Neo4JClient
	logger *logger.Logger
}

// NewNeo4JBundleRepository creates a new Neo4J bundle repository
func NewNeo4JBundleRepository(client *Neo4JClient, logger *logger.Logger) repository.BundleGraphRepository {
	return &Neo4JBundleRepository{
		client: client,
		logger: logger.WithComponent("neo4j-bundle-repo"),
	}
}

// SaveBundleReport writes one run in a single transaction
func (r *Neo4JBundleRepository) SaveBundleReport(ctx context.Context, report *entity.BundleReport) error {
	session := r.client.NewSession(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	params := bundleParams(report)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, query := range []string{saveBundleRunQuery, saveWalletsQuery, saveFundersQuery, saveTransfersQuery} {
			if _, err := tx.Run(ctx, query, params); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to save bundle report %s: %w", report.RunID, err)
	}

	r.logger.Debug("Saved bundle report",
		zap.String("run_id", report.RunID),
		zap.Int("wallets", len(params["wallets"].([]any))),
		zap.Int("transfers", len(params["transfers"].([]any))))

	return nil
}

// GetWalletConnections retrieves stored transfers touching address
func (r *Neo4JBundleRepository) GetWalletConnections(ctx context.Context, address string, limit int) ([]entity.WalletConnection, error) {
	records, err := r.read(ctx, walletConnectionsQuery, map[string]any{
		"address": address,
		"limit":   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet connections: %w", err)
	}
	return recordsToConnections(records), nil
}

// KnownConnections retrieves stored transfers between members of addresses
func (r *Neo4JBundleRepository) KnownConnections(ctx context.Context, addresses []string) ([]entity.WalletConnection, error) {
	if len(addresses) < 2 {
		return []entity.WalletConnection{}, nil
	}
	records, err := r.read(ctx, knownConnectionsQuery, map[string]any{"addresses": addresses})
	if err != nil {
		return nil, fmt.Errorf("failed to get known connections: %w", err)
	}
	return recordsToConnections(records), nil
}

func (r *Neo4JBundleRepository) read(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
	session := r.client.NewSession(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*neo4j.Record), nil
}

// bundleParams flattens a report into the query parameters shared by the save statements
func bundleParams(report *entity.BundleReport) map[string]any {
	wallets := make([]any, 0, len(report.Wallets))
	funders := make([]any, 0)

	for _, w := range report.Wallets {
		if !w.OK() {
			continue
		}
		node := map[string]any{
			"address":            w.Address,
			"score":              int64(w.Score),
			"badge":              string(w.Badge),
			"role":               "",
			"funding_source":     "",
			"age_days":           int64(w.Stats.AgeInDays),
			"balance_sol":        w.Stats.BalanceSOL,
			"total_transactions": int64(w.Stats.TotalTransactions),
		}
		if w.Role != nil {
			node["role"] = string(w.Role.Role)
		}
		if w.Funding != nil {
			node["funding_source"] = string(w.Funding.Source)
			if d := w.Funding.FirstDeposit; d != nil && d.From != "" && d.From != w.Address {
				exchange := ""
				if w.Funding.Source.IsExchange() {
					exchange = w.Funding.SourceName
				}
				funders = append(funders, map[string]any{
					"to":         w.Address,
					"from":       d.From,
					"signature":  d.Signature,
					"amount_sol": d.AmountSOL,
					"timestamp":  d.Timestamp,
					"source":     string(w.Funding.Source),
					"exchange":   exchange,
					"confidence": int64(w.Funding.Confidence),
				})
			}
		}
		wallets = append(wallets, node)
	}

	transfers := make([]any, 0, len(report.Analysis.Connections))
	for _, c := range report.Analysis.Connections {
		if c.From == "" || c.To == "" || c.From == c.To {
			continue
		}
		transfers = append(transfers, map[string]any{
			"from":       c.From,
			"to":         c.To,
			"signature":  c.Signature,
			"amount_sol": c.AmountSOL,
			"timestamp":  c.Timestamp,
		})
	}

	return map[string]any{
		"run_id":          report.RunID,
		"started_at":      report.StartedAt.UTC().Format(time.RFC3339Nano),
		"finished_at":     report.FinishedAt.UTC().Format(time.RFC3339Nano),
		"suspicion_score": int64(report.Analysis.SuspicionScore),
		"risk_level":      string(report.Insights.RiskLevel),
		"warning_count":   int64(len(report.Analysis.Warnings)),
		"wallets":         wallets,
		"funders":         funders,
		"transfers":       transfers,
	}
}

func recordsToConnections(records []*neo4j.Record) []entity.WalletConnection {
	connections := make([]entity.WalletConnection, 0, len(records))
	for _, rec := range records {
		connections = append(connections, entity.WalletConnection{
			From:      recordString(rec, "from"),
			To:        recordString(rec, "to"),
			AmountSOL: recordFloat(rec, "amount_sol"),
			Timestamp: recordInt(rec, "timestamp"),
			Signature: recordString(rec, "signature"),
		})
	}
	return connections
}

func recordString(rec *neo4j.Record, key string) string {
	v, _ := rec.Get(key)
	s, _ := v.(string)
	return s
}

func recordFloat(rec *neo4j.Record, key string) float64 {
	v, _ := rec.Get(key)
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return 0
}

func recordInt(rec *neo4j.Record, key string) int64 {
	v, _ := rec.Get(key)
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}
