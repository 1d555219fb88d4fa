package model

import "testing"

func TestCredentialDataKind(t *testing.T) {
	tests := []struct {
		name string
		data CredentialData
		want CredentialKind
	}{
		{"telegram", CredentialData{BotToken: "123:abc", ChatID: "42"}, CredentialTelegram},
		{"email", CredentialData{Email: "a@b.com", Password: "pw"}, CredentialEmail},
		{"bot token alone is not telegram", CredentialData{BotToken: "123:abc"}, CredentialEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.data.Kind(); got != tt.want {
				t.Errorf("Kind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCredentialDataValidate(t *testing.T) {
	tests := []struct {
		name    string
		data    CredentialData
		wantErr bool
	}{
		{"valid telegram", CredentialData{BotToken: "123:abc", ChatID: "42"}, false},
		{"valid email", CredentialData{Email: "a@b.com", Password: "pw"}, false},
		{"telegram missing chat id", CredentialData{BotToken: "123:abc"}, true},
		{"telegram missing token", CredentialData{ChatID: "42"}, true},
		{"email missing password", CredentialData{Email: "a@b.com"}, true},
		{"empty", CredentialData{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDBConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     DBConfig
		wantErr bool
	}{
		{"postgres ok", DBConfig{Type: DBPostgres, Host: "db", DBName: "app", User: "u"}, false},
		{"postgres missing dbname", DBConfig{Type: DBPostgres, Host: "db", User: "u"}, true},
		{"cockroach ok", DBConfig{Type: DBCockroach, Host: "db", DBName: "app", User: "u", SSLMode: "require"}, false},
		{"mysql missing host", DBConfig{Type: DBMySQL, DBName: "app", User: "u"}, true},
		{"sqlite always ok", DBConfig{Type: DBSQLite}, false},
		{"redis host only", DBConfig{Type: DBRedis, Host: "cache"}, false},
		{"mongo missing host", DBConfig{Type: DBMongo}, true},
		{"firestore missing key", DBConfig{Type: DBFirestore}, true},
		{"dynamo missing region", DBConfig{Type: DBDynamo, AccessKeyID: "k"}, true},
		{"oracle missing service", DBConfig{Type: DBOracle, Host: "db", User: "u"}, true},
		{"snowflake ok", DBConfig{Type: DBSnowflake, Account: "org-acct", User: "u", DBName: "wh"}, false},
		{"unknown type", DBConfig{Type: "cassandra", Host: "db"}, true},
		{"missing type", DBConfig{Host: "db"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSchemaSupported(t *testing.T) {
	for _, dbType := range []string{DBPostgres, DBMySQL, DBCockroach, DBTimescale} {
		if !SchemaSupported(dbType) {
			t.Errorf("SchemaSupported(%s) = false, want true", dbType)
		}
	}
	for _, dbType := range []string{DBMongo, DBRedis, DBSQLite, DBFirestore, DBDynamo, DBMSSQL} {
		if SchemaSupported(dbType) {
			t.Errorf("SchemaSupported(%s) = true, want false", dbType)
		}
	}
}
