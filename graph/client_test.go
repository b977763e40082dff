package graph_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-fb-ads-gateway/graph"
	apperrors "github.com/jrsteele09/go-fb-ads-gateway/internal/errors"
	"github.com/jrsteele09/go-fb-ads-gateway/provider"
	"github.com/jrsteele09/go-fb-ads-gateway/provider/providerfake"
	"github.com/jrsteele09/go-fb-ads-gateway/tokencipher"
	"github.com/stretchr/testify/require"
)

const testToken = "EAAGgraphtoken"

type testFixture struct {
	cipher *tokencipher.Cipher
	fake   *providerfake.FakeGraphProvider
	client *graph.Client
	sealed string
}

func setupTestFixture(t *testing.T, options ...graph.ClientOption) *testFixture {
	t.Helper()

	cipher, err := tokencipher.New([]byte("graph-test-secret-0123456789"))
	require.NoError(t, err)
	sealed, err := cipher.Seal([]byte(testToken))
	require.NoError(t, err)

	fake := providerfake.NewFakeGraphProvider()
	return &testFixture{
		cipher: cipher,
		fake:   fake,
		client: graph.New(cipher, fake, options...),
		sealed: sealed,
	}
}

func TestCampaigns_ConcatenatesPagesInOrder(t *testing.T) {
	f := setupTestFixture(t)
	f.fake.SetPages("act_42/campaigns",
		[]any{map[string]string{"id": "1"}, map[string]string{"id": "2"}},
		[]any{map[string]string{"id": "3"}},
		[]any{map[string]string{"id": "4"}, map[string]string{"id": "5"}},
	)

	campaigns, err := f.client.Campaigns(context.Background(), f.sealed, "42")
	require.NoError(t, err)

	ids := make([]string, 0, len(campaigns))
	for _, c := range campaigns {
		ids = append(ids, c.ID)
	}
	require.Equal(t, []string{"1", "2", "3", "4", "5"}, ids)
	require.Equal(t, []string{"", "1", "2"}, f.fake.Fetches("act_42/campaigns"))
	require.Equal(t, []string{testToken, testToken, testToken}, f.fake.Tokens())
}

func TestCampaigns_LaterPageFailureFailsCall(t *testing.T) {
	f := setupTestFixture(t)
	f.fake.SetPages("act_42/campaigns",
		[]any{map[string]string{"id": "1"}},
		[]any{map[string]string{"id": "2"}},
		[]any{map[string]string{"id": "3"}},
	)
	f.fake.FailPage("act_42/campaigns", 2, apperrors.Wrapf(apperrors.ErrUpstreamFetchFailed, "boom"))

	campaigns, err := f.client.Campaigns(context.Background(), f.sealed, "act_42")
	require.Nil(t, campaigns)
	require.ErrorIs(t, err, apperrors.ErrUpstreamFetchFailed)
}

func TestCampaigns_Validation(t *testing.T) {
	f := setupTestFixture(t)

	t.Run("empty account id", func(t *testing.T) {
		_, err := f.client.Campaigns(context.Background(), f.sealed, "  ")
		require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	})

	t.Run("path characters rejected", func(t *testing.T) {
		_, err := f.client.Campaigns(context.Background(), f.sealed, "42/../me")
		require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := f.client.Campaigns(context.Background(), "garbage", "42")
		require.ErrorIs(t, err, apperrors.ErrInvalidCredential)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := f.client.Campaigns(context.Background(), "", "42")
		require.ErrorIs(t, err, apperrors.ErrInvalidCredential)
	})

	require.Empty(t, f.fake.Tokens())
}

func TestCampaignAds(t *testing.T) {
	f := setupTestFixture(t)
	f.fake.SetPages("777/ads",
		[]any{map[string]any{"id": "a1", "campaign_id": "777", "creative": map[string]string{"id": "cr1", "title": "Hello"}}},
		[]any{map[string]any{"id": "a2", "campaign_id": "777"}},
	)

	ads, err := f.client.CampaignAds(context.Background(), f.sealed, "777")
	require.NoError(t, err)
	require.Len(t, ads, 2)
	require.Equal(t, "a1", ads[0].ID)
	require.NotNil(t, ads[0].Creative)
	require.Equal(t, "Hello", ads[0].Creative.Title)
	require.Nil(t, ads[1].Creative)

	_, err = f.client.CampaignAds(context.Background(), f.sealed, "")
	require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
}

func TestAdAccounts(t *testing.T) {
	f := setupTestFixture(t)
	f.fake.SetPages("me/adaccounts",
		[]any{map[string]any{"id": "act_1", "account_id": "1", "name": "Main", "account_status": 1, "currency": "USD"}},
	)

	accounts, err := f.client.AdAccounts(context.Background(), f.sealed)
	require.NoError(t, err)
	require.Equal(t, []provider.AdAccount{{ID: "act_1", AccountID: "1", Name: "Main", AccountStatus: 1, Currency: "USD"}}, accounts)
}

func TestAdAccounts_EmptyEdge(t *testing.T) {
	f := setupTestFixture(t)

	accounts, err := f.client.AdAccounts(context.Background(), f.sealed)
	require.NoError(t, err)
	require.NotNil(t, accounts)
	require.Empty(t, accounts)
}

func TestPagination_RepeatedCursor(t *testing.T) {
	f := setupTestFixture(t)
	f.fake.SetPages("me/adaccounts", []any{map[string]string{"id": "act_1"}})
	f.fake.LoopCursor()

	_, err := f.client.AdAccounts(context.Background(), f.sealed)
	require.ErrorIs(t, err, apperrors.ErrUpstreamFetchFailed)
	require.Equal(t, []string{"", "0"}, f.fake.Fetches("me/adaccounts"))
}

func TestPagination_MaxPages(t *testing.T) {
	f := setupTestFixture(t, graph.WithMaxPages(2))
	f.fake.SetPages("me/adaccounts",
		[]any{map[string]string{"id": "act_1"}},
		[]any{map[string]string{"id": "act_2"}},
		[]any{map[string]string{"id": "act_3"}},
	)

	_, err := f.client.AdAccounts(context.Background(), f.sealed)
	require.ErrorIs(t, err, apperrors.ErrUpstreamFetchFailed)
	require.Len(t, f.fake.Fetches("me/adaccounts"), 2)
}

func TestNormalizeAdAccountID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "123", want: "act_123"},
		{in: "act_123", want: "act_123"},
		{in: " 123 ", want: "act_123"},
		{in: "", wantErr: true},
		{in: "act_", wantErr: true},
		{in: "12?fields=x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := graph.NormalizeAdAccountID(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
