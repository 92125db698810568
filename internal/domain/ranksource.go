package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// RankSourceType selects which external rank store to query.
type RankSourceType int

const (
	RankSourceDisabled    RankSourceType = 0
	RankSourcePrimary     RankSourceType = 1
	RankSourceAlternative RankSourceType = 2
	RankSourceRedis       RankSourceType = 3
)

// DefaultSQLPort is assumed when a descriptor shape carries no explicit port.
const DefaultSQLPort uint16 = 5432

// SourceDescriptor is the canonical connection descriptor every rank source
// shape normalizes into before the lookup step. The two legacy SQL shapes are
// incompatible on the wire; this type is the compatibility seam between them.
type SourceDescriptor struct {
	Host     string
	User     string
	Password string
	Database string
	Port     uint16
	Table    string
}

// primaryDescriptor is the "primary" on-disk shape: every connection field
// explicit, the table name carried as Name.
type primaryDescriptor struct {
	DbHost     string `json:"DbHost"`
	DbUser     string `json:"DbUser"`
	DbPassword string `json:"DbPassword"`
	DbName     string `json:"DbName"`
	DbPort     string `json:"DbPort"`
	Name       string `json:"Name"`
}

// alternativeDescriptor is the "alternative" on-disk shape: the connection
// block nested, no port (the standard port is assumed), the table name at the
// top level.
type alternativeDescriptor struct {
	TableName  string `json:"TableName"`
	Connection *struct {
		Host     string `json:"Host"`
		Database string `json:"Database"`
		User     string `json:"User"`
		Password string `json:"Password"`
	} `json:"Connection"`
}

// ParsePrimaryDescriptor normalizes the primary JSON shape. A malformed port
// is a local failure of this descriptor, not of the process.
func ParsePrimaryDescriptor(data []byte) (SourceDescriptor, error) {
	var raw primaryDescriptor
	if err := json.Unmarshal(data, &raw); err != nil {
		return SourceDescriptor{}, fmt.Errorf("parsing primary descriptor: %w", err)
	}
	if raw.DbHost == "" || raw.Name == "" {
		return SourceDescriptor{}, ErrInvalidDescriptor
	}
	port, err := strconv.ParseUint(raw.DbPort, 10, 16)
	if err != nil {
		return SourceDescriptor{}, fmt.Errorf("%w: bad port %q", ErrInvalidDescriptor, raw.DbPort)
	}
	return SourceDescriptor{
		Host:     raw.DbHost,
		User:     raw.DbUser,
		Password: raw.DbPassword,
		Database: raw.DbName,
		Port:     uint16(port),
		Table:    raw.Name,
	}, nil
}

// ParseAlternativeDescriptor normalizes the alternative JSON shape into the
// same canonical descriptor, defaulting the port.
func ParseAlternativeDescriptor(data []byte) (SourceDescriptor, error) {
	var raw alternativeDescriptor
	if err := json.Unmarshal(data, &raw); err != nil {
		return SourceDescriptor{}, fmt.Errorf("parsing alternative descriptor: %w", err)
	}
	if raw.Connection == nil || raw.Connection.Host == "" || raw.TableName == "" {
		return SourceDescriptor{}, ErrInvalidDescriptor
	}
	return SourceDescriptor{
		Host:     raw.Connection.Host,
		User:     raw.Connection.User,
		Password: raw.Connection.Password,
		Database: raw.Connection.Database,
		Port:     DefaultSQLPort,
		Table:    raw.TableName,
	}, nil
}
