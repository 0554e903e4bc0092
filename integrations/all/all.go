// Package all registers every built-in store backend with integrations.Open.
// Import it for its side effects.
package all

import (
	_ "github.com/TFMV/attemptgen/integrations/adbcstore"
	_ "github.com/TFMV/attemptgen/integrations/postgres"
	_ "github.com/TFMV/attemptgen/integrations/sqlstore"
)
