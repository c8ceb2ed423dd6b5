package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ NetworkRepository = (*PostgresNetworkRepository)(nil)

// PostgresNetworkRepository handles database operations for affiliate networks
type PostgresNetworkRepository struct {
	db *DB
}

func NewNetworkRepository(db *DB) *PostgresNetworkRepository {
	return &PostgresNetworkRepository{db: db}
}

const networkColumns = `id, name, api_endpoint, api_key_name, market_code, config,
	is_active, last_sync_at, created_at, updated_at`

func (r *PostgresNetworkRepository) scanNetwork(row interface{ Scan(...interface{}) error }) (*AffiliateNetwork, error) {
	var n AffiliateNetwork
	err := row.Scan(&n.ID, &n.Name, &n.APIEndpoint, &n.APIKeyName, &n.MarketCode,
		&n.Config, &n.IsActive, &n.LastSyncAt, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *PostgresNetworkRepository) GetNetwork(id string) (*AffiliateNetwork, error) {
	network, err := r.scanNetwork(r.db.QueryRow(`
		SELECT `+networkColumns+`
		FROM affiliate_networks
		WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get affiliate network: %w", err)
	}
	return network, nil
}

func (r *PostgresNetworkRepository) GetNetworks() ([]AffiliateNetwork, error) {
	return r.queryNetworks(`SELECT ` + networkColumns + ` FROM affiliate_networks ORDER BY name`)
}

func (r *PostgresNetworkRepository) GetActiveNetworks() ([]AffiliateNetwork, error) {
	return r.queryNetworks(`SELECT ` + networkColumns + ` FROM affiliate_networks WHERE is_active = true ORDER BY name`)
}

func (r *PostgresNetworkRepository) queryNetworks(query string) ([]AffiliateNetwork, error) {
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query affiliate networks: %w", err)
	}
	defer rows.Close()

	var networks []AffiliateNetwork
	for rows.Next() {
		network, err := r.scanNetwork(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan affiliate network row: %w", err)
		}
		networks = append(networks, *network)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating affiliate network rows: %w", err)
	}

	return networks, nil
}

func (r *PostgresNetworkRepository) CreateNetwork(network *AffiliateNetwork) (string, error) {
	var id string
	err := r.db.QueryRow(`
		INSERT INTO affiliate_networks (name, api_endpoint, api_key_name, market_code, config, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, network.Name, network.APIEndpoint, network.APIKeyName, network.MarketCode,
		network.Config, network.IsActive).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create affiliate network: %w", err)
	}
	return id, nil
}

func (r *PostgresNetworkRepository) UpdateNetwork(network *AffiliateNetwork) error {
	_, err := r.db.Exec(`
		UPDATE affiliate_networks
		SET name = $2, api_endpoint = $3, api_key_name = $4, market_code = $5,
			config = $6, is_active = $7, updated_at = NOW()
		WHERE id = $1
	`, network.ID, network.Name, network.APIEndpoint, network.APIKeyName,
		network.MarketCode, network.Config, network.IsActive)
	if err != nil {
		return fmt.Errorf("failed to update affiliate network: %w", err)
	}
	return nil
}

func (r *PostgresNetworkRepository) DeleteNetwork(id string) error {
	_, err := r.db.Exec(`DELETE FROM affiliate_networks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete affiliate network: %w", err)
	}
	return nil
}

// StampSynced records the time of the latest sync attempt, success or not
func (r *PostgresNetworkRepository) StampSynced(id string, at time.Time) error {
	_, err := r.db.Exec(`
		UPDATE affiliate_networks
		SET last_sync_at = $2, updated_at = NOW()
		WHERE id = $1
	`, id, at)
	if err != nil {
		return fmt.Errorf("failed to stamp network sync time: %w", err)
	}
	return nil
}
