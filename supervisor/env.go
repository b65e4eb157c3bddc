package supervisor

import (
	"fmt"

	"github.com/opensaas/devfleet/workspace"
)

// BuildEnv materializes the environment for one safe-start invocation. The
// variables are scoped to the launched processes only — no shared config
// file is ever rewritten, so nothing can leak into another workspace's next
// run. Variable names are the application-side contract.
func BuildEnv(ws *workspace.Workspace, dbURL, runID string) []string {
	return []string{
		fmt.Sprintf("PORT=%d", ws.APIPort),
		fmt.Sprintf("WEB_PORT=%d", ws.WebPort),
		"DATABASE_URL=" + dbURL,
		"WASP_WEB_CLIENT_URL=" + ws.WebURL(),
		"WASP_SERVER_URL=" + ws.APIURL(),
		"REACT_APP_API_URL=" + ws.APIURL(),
		"DEVFLEET_WORKSPACE=" + string(ws.Name),
		"DEVFLEET_RUN_ID=" + runID,
	}
}
