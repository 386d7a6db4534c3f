package e2e

import (
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuthz_MissingCredentials(t *testing.T) {
	resp, body := httpGet(t, tenantURL("/clients"), noAuth())
	require.Equal(t, 401, resp.StatusCode, body)
	require.Contains(t, body, "unauthorized")
}

func TestAuthz_WrongSecret(t *testing.T) {
	clientID, _ := createTestClient(t)

	resp, body := httpPost(t, tenantURL("/credentials"), map[string]interface{}{
		"client_id": clientID,
	}, asClient(clientID, "kbc_wrong_secret"))
	require.Equal(t, 401, resp.StatusCode, body)
	require.Contains(t, body, "unauthorized")
	require.NotContains(t, body, clientID, "auth errors must not echo identifiers")
}

func TestAuthz_DisabledPrincipalRejected(t *testing.T) {
	clientID, clientSecret := createTestClient(t)

	// Suspend the client.
	resp, body := httpPut(t, tenantURL("/clients/"+clientID), map[string]interface{}{
		"enabled": false,
	}, asAdmin())
	require.Equal(t, 200, resp.StatusCode, body)

	resp, body = httpPost(t, tenantURL("/credentials"), map[string]interface{}{
		"client_id": clientID,
	}, asClient(clientID, clientSecret))
	require.Equal(t, 401, resp.StatusCode, body)
}

func TestAuthz_CrossTenantRejected(t *testing.T) {
	// Admin credentials are valid, but the URL names a different tenant.
	req, err := http.NewRequest(http.MethodGet, brokerAPIURL+"/tenants/some-other-tenant/clients", nil)
	require.NoError(t, err)
	req.Header.Set("X-Tenant-ID", tenantID)
	req.Header.Set("X-Admin-ID", adminID)
	req.Header.Set("X-Admin-Secret", adminSecret)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 403, resp.StatusCode)
}

func TestAuthz_UserReadsOwnRecordOnly(t *testing.T) {
	userID, userSecret := createTestUser(t)
	otherID, _ := createTestUser(t)

	// Own record.
	resp, body := httpGet(t, tenantURL("/users/"+userID), asUser(userID, userSecret))
	require.Equal(t, 200, resp.StatusCode, body)
	user := parseJSON(t, body)
	require.Equal(t, userID, user["user_id"])
	_, hasHash := user["secret_hash"]
	require.False(t, hasHash, "stored hash must never appear in a response")

	// Someone else's record.
	resp, body = httpGet(t, tenantURL("/users/"+otherID), asUser(userID, userSecret))
	require.Equal(t, 403, resp.StatusCode, body)
	require.Contains(t, body, "principal access denied")

	// Users cannot list.
	resp, body = httpGet(t, tenantURL("/users"), asUser(userID, userSecret))
	require.Equal(t, 401, resp.StatusCode, body)
}

// Suspending a tenant cuts off every one of its principals, the suspending
// admin included, so the tenant cannot be re-enabled through the API. Gated
// separately because it leaves the suite's tenant suspended; run it alone
// against a disposable tenant:
//
//	KEYBROKER_E2E_TENANT_SUSPEND=1 go test -run TestAuthz_SuspendedTenant ./tests/e2e
func TestAuthz_SuspendedTenantLocksOutPrincipals(t *testing.T) {
	if os.Getenv("KEYBROKER_E2E_TENANT_SUSPEND") == "" {
		t.Skip("set KEYBROKER_E2E_TENANT_SUSPEND=1 to run (leaves the tenant suspended)")
	}

	clientID, clientSecret := createTestClient(t)

	resp, body := httpPut(t, tenantURL(""), map[string]interface{}{
		"enabled": false,
	}, asAdmin())
	require.Equal(t, 200, resp.StatusCode, body)

	// The client's valid secret no longer authenticates.
	resp, body = httpPost(t, tenantURL("/credentials"), map[string]interface{}{
		"client_id": clientID,
	}, asClient(clientID, clientSecret))
	require.Equal(t, 401, resp.StatusCode, body)

	// Neither does the admin that flipped the switch.
	resp, body = httpGet(t, tenantURL("/clients"), asAdmin())
	require.Equal(t, 401, resp.StatusCode, body)
}

func TestAuthz_ClientCannotManagePrincipals(t *testing.T) {
	clientID, clientSecret := createTestClient(t)

	resp, body := httpPost(t, tenantURL("/users"), map[string]interface{}{
		"user_id": "sneaky",
	}, asClient(clientID, clientSecret))
	require.Equal(t, 401, resp.StatusCode, body)
}
