package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cucumber/godog"
)

// RegisterSteps registers all step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Background steps
	ctx.Step(`^the verifier is running$`, tc.verifierIsRunning)
	ctx.Step(`^an issuer token is available$`, tc.issuerTokenIsAvailable)
	ctx.Step(`^the holder is "([^"]*)"$`, tc.holderIs)

	// Issuance steps
	ctx.Step(`^the issuer issues a "([^"]*)" credential named "([^"]*)" for (\d{4})$`, tc.issueCredential)
	ctx.Step(`^I save the credential hash$`, tc.saveCredentialHash)
	ctx.Step(`^the issuer revokes the saved credential$`, tc.revokeSavedCredential)

	// Verification steps
	ctx.Step(`^I verify the saved credential$`, tc.verifySavedCredential)
	ctx.Step(`^I disclose the saved credential$`, tc.discloseSavedCredential)
	ctx.Step(`^I verify all credentials of the holder$`, tc.verifyAll)
	ctx.Step(`^I open the verification link for the saved credential$`, tc.openEntryLink)
	ctx.Step(`^I verify credential "([^"]*)" of the holder$`, tc.verifyHash)

	// Session steps
	ctx.Step(`^I open a session for the holder$`, tc.openSession)
	ctx.Step(`^I verify credential (\d+) in the session$`, tc.verifyInSession)
	ctx.Step(`^I fetch the session$`, tc.fetchSession)

	// Request steps
	ctx.Step(`^I GET "([^"]*)"$`, tc.get)
	ctx.Step(`^I GET "([^"]*)" with the admin token$`, tc.getWithAdminToken)
	ctx.Step(`^I POST to "([^"]*)" with empty body$`, tc.postWithEmptyBody)
	ctx.Step(`^I POST to "([^"]*)" with token "([^"]*)"$`, tc.postWithToken)

	// Assertion steps
	ctx.Step(`^the response status should be (\d+)$`, tc.responseStatusShouldBe)
	ctx.Step(`^the response should contain "([^"]*)"$`, tc.responseShouldContain)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, tc.responseFieldShouldEqual)
	ctx.Step(`^the response header "([^"]*)" should be set$`, tc.responseHeaderShouldBeSet)
	ctx.Step(`^log "([^"]*)"$`, tc.logMessage)
}

func (tc *TestContext) verifierIsRunning(ctx context.Context) error {
	if err := tc.GET("/health/live", nil); err != nil {
		return err
	}
	return tc.responseStatusShouldBe(ctx, 200)
}

func (tc *TestContext) issuerTokenIsAvailable(ctx context.Context) error {
	if tc.IssuerToken == "" {
		return godog.ErrSkip
	}
	return nil
}

func (tc *TestContext) holderIs(ctx context.Context, account string) error {
	tc.Holder = account
	return nil
}

func (tc *TestContext) issueCredential(ctx context.Context, credType, name string, year int) error {
	body := map[string]any{
		"name":      name,
		"type":      credType,
		"year":      strconv.Itoa(year),
		"recipient": tc.Holder,
	}
	return tc.POST("/v1/credentials", body, tc.authHeaders())
}

func (tc *TestContext) saveCredentialHash(ctx context.Context) error {
	v, err := tc.GetResponseField("credential_hash")
	if err != nil {
		return err
	}
	hash, ok := v.(string)
	if !ok || hash == "" {
		return fmt.Errorf("credential_hash is not a string: %v", v)
	}
	tc.CredentialHash = hash
	return nil
}

func (tc *TestContext) revokeSavedCredential(ctx context.Context) error {
	return tc.POST("/v1/credentials/"+tc.CredentialHash+"/revoke", nil, tc.authHeaders())
}

func (tc *TestContext) verifySavedCredential(ctx context.Context) error {
	return tc.verifyHash(ctx, tc.CredentialHash)
}

func (tc *TestContext) verifyHash(ctx context.Context, hash string) error {
	return tc.POST("/v1/accounts/"+tc.Holder+"/credentials/"+hash+"/verify", nil, nil)
}

func (tc *TestContext) discloseSavedCredential(ctx context.Context) error {
	return tc.POST("/v1/accounts/"+tc.Holder+"/credentials/"+tc.CredentialHash+"/disclose", nil, nil)
}

func (tc *TestContext) verifyAll(ctx context.Context) error {
	return tc.POST("/v1/accounts/"+tc.Holder+"/verify-all", nil, nil)
}

func (tc *TestContext) openEntryLink(ctx context.Context) error {
	return tc.GET("/verify?user="+tc.Holder+"&hash="+tc.CredentialHash, nil)
}

func (tc *TestContext) openSession(ctx context.Context) error {
	if err := tc.POST("/v1/sessions", map[string]any{"user": tc.Holder}, nil); err != nil {
		return err
	}
	v, err := tc.GetResponseField("session_id")
	if err != nil {
		return err
	}
	tc.SessionID = fmt.Sprint(v)
	return nil
}

func (tc *TestContext) verifyInSession(ctx context.Context, index int) error {
	return tc.POST(fmt.Sprintf("/v1/sessions/%s/credentials/%d/verify", tc.SessionID, index), nil, nil)
}

func (tc *TestContext) fetchSession(ctx context.Context) error {
	return tc.GET("/v1/sessions/"+tc.SessionID+"/", nil)
}

func (tc *TestContext) get(ctx context.Context, path string) error {
	return tc.GET(path, nil)
}

func (tc *TestContext) getWithAdminToken(ctx context.Context, path string) error {
	return tc.GET(path, map[string]string{"X-Admin-Token": tc.AdminToken})
}

func (tc *TestContext) postWithEmptyBody(ctx context.Context, path string) error {
	return tc.POST(path, nil, nil)
}

func (tc *TestContext) postWithToken(ctx context.Context, path, token string) error {
	return tc.POST(path, nil, map[string]string{"Authorization": "Bearer " + token})
}

func (tc *TestContext) responseStatusShouldBe(ctx context.Context, expectedStatus int) error {
	if tc.LastResponse == nil {
		return fmt.Errorf("no response recorded")
	}
	if tc.LastResponse.StatusCode != expectedStatus {
		return fmt.Errorf("expected status %d but got %d\nResponse: %s", expectedStatus, tc.LastResponse.StatusCode, string(tc.LastResponseBody))
	}
	return nil
}

func (tc *TestContext) responseShouldContain(ctx context.Context, field string) error {
	if !tc.ResponseContains(field) {
		return fmt.Errorf("response does not contain field: %s\nResponse: %s", field, string(tc.LastResponseBody))
	}
	return nil
}

// responseFieldShouldEqual resolves dotted paths; numeric segments index arrays.
func (tc *TestContext) responseFieldShouldEqual(ctx context.Context, field, expectedValue string) error {
	var data any
	if err := json.Unmarshal(tc.LastResponseBody, &data); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	current := data
	for _, part := range strings.Split(field, ".") {
		switch node := current.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return fmt.Errorf("field %s not found in response", field)
			}
			current = v
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return fmt.Errorf("field %s: bad index %q", field, part)
			}
			current = node[i]
		default:
			return fmt.Errorf("field %s not found in response", field)
		}
	}

	if fmt.Sprint(current) != expectedValue {
		return fmt.Errorf("field %s: expected %s but got %v", field, expectedValue, current)
	}
	return nil
}

func (tc *TestContext) responseHeaderShouldBeSet(ctx context.Context, header string) error {
	if tc.LastResponse == nil || tc.LastResponse.Header.Get(header) == "" {
		return fmt.Errorf("header %s not set", header)
	}
	return nil
}

func (tc *TestContext) logMessage(ctx context.Context, message string) error {
	fmt.Println(message)
	return nil
}
