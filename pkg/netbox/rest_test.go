package netbox

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/suite"

	"github.com/netbox-community/netbox-mcp-server/internal/test"
)

type RestClientSuite struct {
	suite.Suite
	MockServer *test.NetBoxMockServer
	client     *RestClient
}

func (s *RestClientSuite) SetupTest() {
	s.MockServer = test.NewNetBoxMockServer()
	s.client = test.Must(NewRestClient(Options{URL: s.MockServer.URL(), Token: s.MockServer.Token}))
}

func (s *RestClientSuite) TearDownTest() {
	s.MockServer.Close()
}

func (s *RestClientSuite) TestNewRestClient() {
	s.Run("missing URL returns ConfigurationError", func() {
		_, err := NewRestClient(Options{Token: "t"})
		var cfgErr *ConfigurationError
		s.Require().ErrorAs(err, &cfgErr)
		s.Contains(cfgErr.Error(), "URL is required")
	})
	s.Run("missing token returns ConfigurationError", func() {
		_, err := NewRestClient(Options{URL: "https://netbox.example.com"})
		var cfgErr *ConfigurationError
		s.Require().ErrorAs(err, &cfgErr)
		s.Contains(cfgErr.Error(), "token is required")
	})
	s.Run("relative URL returns ConfigurationError", func() {
		_, err := NewRestClient(Options{URL: "netbox.example.com", Token: "t"})
		var cfgErr *ConfigurationError
		s.Require().ErrorAs(err, &cfgErr)
	})
	s.Run("invalid branch mode returns ConfigurationError", func() {
		_, err := NewRestClient(Options{URL: "https://netbox.example.com", Token: "t", BranchMode: "cookie"})
		var cfgErr *ConfigurationError
		s.Require().ErrorAs(err, &cfgErr)
		s.Contains(cfgErr.Error(), "invalid branch mode")
	})
	s.Run("api URL is derived from base URL", func() {
		c := test.Must(NewRestClient(Options{URL: "https://netbox.example.com/", Token: "t"}))
		s.Equal("https://netbox.example.com/api", c.apiURL.String())
	})
	s.Run("initial branch is active", func() {
		c := test.Must(NewRestClient(Options{URL: "https://netbox.example.com", Token: "t", Branch: "abc123"}))
		s.Equal("abc123", c.ActiveBranch())
	})
}

func (s *RestClientSuite) TestAuthorizationHeader() {
	s.Run("plain token uses Token scheme", func() {
		s.Equal("Token 0123", authorizationHeader("0123"))
	})
	s.Run("v2 token uses Bearer scheme", func() {
		s.Equal("Bearer nbt_abc.def", authorizationHeader("nbt_abc.def"))
	})
	s.Run("explicit scheme is kept", func() {
		s.Equal("Bearer xyz", authorizationHeader("Bearer xyz"))
		s.Equal("Token xyz", authorizationHeader("Token xyz"))
	})
	s.Run("sent on every request", func() {
		s.MockServer.HandleJSON(http.MethodGet, "/api/dcim/sites/1/", http.StatusOK, `{"id":1}`)
		_, err := s.client.GetByID(context.Background(), Sites, 1)
		s.Require().NoError(err)
		requests := s.MockServer.Requests()
		s.Require().Len(requests, 1)
		s.Equal("Token "+s.MockServer.Token, requests[0].Header.Get("Authorization"))
		s.Equal("application/json", requests[0].Header.Get("Accept"))
		s.NotEmpty(requests[0].Header.Get("X-Request-ID"))
	})
}

func (s *RestClientSuite) TestGetFollowsPagination() {
	s.MockServer.HandlePages("/api/dcim/devices/",
		`[{"id":1,"name":"d1"},{"id":2,"name":"d2"}]`,
		`[{"id":3,"name":"d3"}]`,
		`[{"id":4,"name":"d4"}]`,
	)
	devices, err := s.client.Get(context.Background(), Devices, Filters{"site": "dc1", "status": []any{"active", "planned"}})
	s.Run("returns no error", func() {
		s.Require().NoError(err)
	})
	s.Run("returns the concatenation of all pages in order", func() {
		s.Require().Len(devices, 4)
		for i, d := range devices {
			s.Equal(json.Number(strconv.Itoa(i+1)), d["id"])
		}
	})
	s.Run("performs exactly one fetch per page", func() {
		s.Len(s.MockServer.Requests(), 3)
	})
	s.Run("sends filters as query parameters", func() {
		first := s.MockServer.Requests()[0]
		s.Equal("dc1", first.Query.Get("site"))
		s.Equal([]string{"active", "planned"}, first.Query["status"])
	})
	s.Run("follow-up pages keep filters", func() {
		for _, r := range s.MockServer.Requests()[1:] {
			s.Equal("dc1", r.Query.Get("site"))
		}
	})
}

func (s *RestClientSuite) TestGetKeepsPaginationOnConfiguredOrigin() {
	var foreignRequests atomic.Int32
	foreign := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		foreignRequests.Add(1)
		test.WriteJSON(w, http.StatusOK, `{"count":2,"next":null,"previous":null,"results":[{"id":99,"name":"foreign"}]}`)
	}))
	defer foreign.Close()
	s.MockServer.Handle(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/api/dcim/sites/" {
			return
		}
		if req.URL.Query().Get("offset") == "1" {
			test.WriteJSON(w, http.StatusOK, `{"count":2,"next":null,"previous":null,"results":[{"id":2,"name":"dc2"}]}`)
			return
		}
		test.WriteJSON(w, http.StatusOK, `{"count":2,"next":"`+foreign.URL+`/api/dcim/sites/?offset=1","previous":null,"results":[{"id":1,"name":"dc1"}]}`)
	}))
	sites, err := s.client.Get(context.Background(), Sites, nil)
	s.Run("returns every page", func() {
		s.Require().NoError(err)
		s.Require().Len(sites, 2)
		s.Equal("dc2", sites[1]["name"])
	})
	s.Run("host named in the next link receives no request", func() {
		s.Zero(foreignRequests.Load())
	})
	s.Run("next page is fetched from the configured NetBox with the reported query", func() {
		requests := s.MockServer.Requests()
		s.Require().Len(requests, 2)
		s.Equal("/api/dcim/sites/", requests[1].Path)
		s.Equal("1", requests[1].Query.Get("offset"))
		s.Equal("Token "+s.MockServer.Token, requests[1].Header.Get("Authorization"))
	})
}

func (s *RestClientSuite) TestGetFailsOnPaginationLoop() {
	s.MockServer.Handle(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/api/dcim/sites/" {
			return
		}
		test.WriteJSON(w, http.StatusOK, `{"count":10,"next":"`+s.MockServer.URL()+`/api/dcim/sites/?offset=1","previous":null,"results":[{"id":1,"name":"dc1"}]}`)
	}))
	_, err := s.client.Get(context.Background(), Sites, nil)
	s.Run("returns NetworkError", func() {
		var networkErr *NetworkError
		s.Require().ErrorAs(err, &networkErr)
		s.Contains(networkErr.Error(), "pagination loop")
	})
	s.Run("stops after the repeated link", func() {
		s.Len(s.MockServer.Requests(), 2)
	})
}

func (s *RestClientSuite) TestGetSinglePage() {
	s.MockServer.HandleJSON(http.MethodGet, "/api/virtualization/interfaces/", http.StatusOK,
		`{"count":1,"next":null,"previous":null,"results":[{"id":7,"name":"eth0"}]}`)
	interfaces, err := s.client.Get(context.Background(), VMInterfaces, nil)
	s.Require().NoError(err)
	s.Run("requests the mapped path", func() {
		s.Equal("/api/virtualization/interfaces/", s.MockServer.Requests()[0].Path)
	})
	s.Run("returns results", func() {
		s.Require().Len(interfaces, 1)
		s.Equal("eth0", interfaces[0]["name"])
	})
}

func (s *RestClientSuite) TestSearch() {
	s.MockServer.HandlePages("/api/dcim/devices/", `[{"id":1},{"id":2}]`, `[{"id":3},{"id":4}]`, `[{"id":5}]`)
	s.Run("stops paginating once the limit is reached", func() {
		devices, err := s.client.Search(context.Background(), Devices, "edge", 3)
		s.Require().NoError(err)
		s.Len(devices, 3)
		requests := s.MockServer.Requests()
		s.Require().Len(requests, 2)
		s.Equal("edge", requests[0].Query.Get("q"))
		s.Equal("3", requests[0].Query.Get("limit"))
	})
	s.Run("rejects non-positive limit", func() {
		s.MockServer.ResetRequests()
		_, err := s.client.Search(context.Background(), Devices, "edge", 0)
		var validationErr *ValidationError
		s.ErrorAs(err, &validationErr)
		s.Empty(s.MockServer.Requests())
	})
}

func (s *RestClientSuite) TestGetEmptyResults() {
	s.MockServer.HandleJSON(http.MethodGet, "/api/ipam/prefixes/", http.StatusOK, `{"count":0,"next":null,"previous":null,"results":[]}`)
	prefixes, err := s.client.Get(context.Background(), Prefixes, nil)
	s.Require().NoError(err)
	s.NotNil(prefixes)
	s.Empty(prefixes)
}

func (s *RestClientSuite) TestGetPathForEveryObjectType() {
	for _, objectType := range ObjectTypes() {
		s.MockServer.ResetRequests()
		_, _ = s.client.Get(context.Background(), objectType, nil)
		requests := s.MockServer.Requests()
		s.Require().Len(requests, 1, objectType.String())
		s.Equal("/api/"+objectType.Path()+"/", requests[0].Path, objectType.String())
	}
}

func (s *RestClientSuite) TestGetByID() {
	s.MockServer.HandleJSON(http.MethodGet, "/api/dcim/devices/42/", http.StatusOK, `{"id":42,"name":"core-sw-01"}`)
	s.Run("returns the object", func() {
		device, err := s.client.GetByID(context.Background(), Devices, 42)
		s.Require().NoError(err)
		s.Equal("core-sw-01", device["name"])
	})
	s.Run("missing object matches ErrNotFound", func() {
		_, err := s.client.GetByID(context.Background(), Devices, 43)
		s.Require().Error(err)
		s.True(errors.Is(err, ErrNotFound))
		var remoteErr *RemoteError
		s.Require().ErrorAs(err, &remoteErr)
		s.Equal(http.StatusNotFound, remoteErr.StatusCode)
		s.Contains(remoteErr.Body, "Not found.")
	})
}

func (s *RestClientSuite) TestCreate() {
	s.MockServer.HandleJSON(http.MethodPost, "/api/dcim/devices/", http.StatusCreated,
		`{"id":101,"name":"new-server","device_type":{"id":5},"role":{"id":3},"site":{"id":1}}`)
	created, err := s.client.Create(context.Background(), Devices, Object{"name": "new-server", "device_type": 5, "role": 3, "site": 1})
	s.Require().NoError(err)
	s.Run("issues one POST to the collection", func() {
		requests := s.MockServer.Requests()
		s.Require().Len(requests, 1)
		s.Equal(http.MethodPost, requests[0].Method)
		s.Equal("/api/dcim/devices/", requests[0].Path)
		s.Equal("application/json", requests[0].Header.Get("Content-Type"))
		s.JSONEq(`{"name":"new-server","device_type":5,"role":3,"site":1}`, requests[0].Body)
	})
	s.Run("returns the created object with its id", func() {
		s.Equal(json.Number("101"), created["id"])
	})
}

func (s *RestClientSuite) TestUpdate() {
	s.MockServer.HandleJSON(http.MethodPatch, "/api/ipam/vlans/12/", http.StatusOK, `{"id":12,"name":"servers"}`)
	updated, err := s.client.Update(context.Background(), VLANs, 12, Object{"name": "servers"})
	s.Require().NoError(err)
	s.Equal("servers", updated["name"])
	s.JSONEq(`{"name":"servers"}`, s.MockServer.Requests()[0].Body)
}

func (s *RestClientSuite) TestDelete() {
	s.MockServer.HandleJSON(http.MethodDelete, "/api/dcim/sites/1/", http.StatusNoContent, "")
	s.MockServer.HandleJSON(http.MethodDelete, "/api/dcim/sites/3/", http.StatusConflict, `{"detail":"Unable to delete object. 2 dependent objects were found"}`)
	s.Run("returns true on 2xx", func() {
		deleted, err := s.client.Delete(context.Background(), Sites, 1)
		s.Require().NoError(err)
		s.True(deleted)
	})
	s.Run("returns false on 404", func() {
		deleted, err := s.client.Delete(context.Background(), Sites, 2)
		s.Require().NoError(err)
		s.False(deleted)
	})
	s.Run("returns RemoteError on other statuses", func() {
		deleted, err := s.client.Delete(context.Background(), Sites, 3)
		s.False(deleted)
		var remoteErr *RemoteError
		s.Require().ErrorAs(err, &remoteErr)
		s.Equal(http.StatusConflict, remoteErr.StatusCode)
		s.Contains(remoteErr.Error(), "dependent objects")
	})
}

func (s *RestClientSuite) TestBulkCreate() {
	s.MockServer.HandleJSON(http.MethodPost, "/api/ipam/ip-addresses/", http.StatusCreated, `[{"id":1},{"id":2}]`)
	s.Run("empty list returns ValidationError without network call", func() {
		_, err := s.client.BulkCreate(context.Background(), IPAddresses, []Object{})
		var validationErr *ValidationError
		s.Require().ErrorAs(err, &validationErr)
		s.Empty(s.MockServer.Requests())
	})
	s.Run("issues one POST with the array body", func() {
		created, err := s.client.BulkCreate(context.Background(), IPAddresses, []Object{{"address": "10.0.0.1/24"}, {"address": "10.0.0.2/24"}})
		s.Require().NoError(err)
		s.Len(created, 2)
		requests := s.MockServer.Requests()
		s.Require().Len(requests, 1)
		s.JSONEq(`[{"address":"10.0.0.1/24"},{"address":"10.0.0.2/24"}]`, requests[0].Body)
	})
}

func (s *RestClientSuite) TestBulkUpdate() {
	s.MockServer.HandleJSON(http.MethodPatch, "/api/dcim/interfaces/", http.StatusOK, `[{"id":1,"enabled":false}]`)
	s.Run("empty list returns ValidationError", func() {
		_, err := s.client.BulkUpdate(context.Background(), Interfaces, nil)
		var validationErr *ValidationError
		s.Require().ErrorAs(err, &validationErr)
	})
	s.Run("entry without id returns ValidationError without network call", func() {
		_, err := s.client.BulkUpdate(context.Background(), Interfaces, []Object{{"id": 1, "enabled": false}, {"enabled": false}})
		var validationErr *ValidationError
		s.Require().ErrorAs(err, &validationErr)
		s.Contains(validationErr.Error(), "index 1")
		s.Contains(validationErr.Error(), "missing required 'id' field")
		s.Empty(s.MockServer.Requests())
	})
	s.Run("entry with malformed id reports the id error", func() {
		_, err := s.client.BulkUpdate(context.Background(), Interfaces, []Object{{"id": "abc"}, {"id": 1.5}})
		var validationErr *ValidationError
		s.Require().ErrorAs(err, &validationErr)
		s.Contains(validationErr.Error(), "item at index 0 has an invalid 'id' field")
		s.Contains(validationErr.Error(), `parsing "abc"`)
		s.NotContains(validationErr.Error(), "missing")
		s.Empty(s.MockServer.Requests())
	})
	s.Run("entry with fractional id reports the id error", func() {
		_, err := s.client.BulkUpdate(context.Background(), Interfaces, []Object{{"id": 1.5}})
		s.ErrorContains(err, "id 1.5 is not an integer")
	})
	s.Run("issues one PATCH with the array body", func() {
		updated, err := s.client.BulkUpdate(context.Background(), Interfaces, []Object{{"id": 1, "enabled": false}})
		s.Require().NoError(err)
		s.Len(updated, 1)
		requests := s.MockServer.Requests()
		s.Require().Len(requests, 1)
		s.Equal(http.MethodPatch, requests[0].Method)
		s.Equal("/api/dcim/interfaces/", requests[0].Path)
	})
}

func (s *RestClientSuite) TestBulkDelete() {
	s.MockServer.HandleJSON(http.MethodDelete, "/api/ipam/ip-addresses/", http.StatusNoContent, "")
	s.Run("empty list returns ValidationError", func() {
		_, err := s.client.BulkDelete(context.Background(), IPAddresses, []int64{})
		var validationErr *ValidationError
		s.Require().ErrorAs(err, &validationErr)
		s.Empty(s.MockServer.Requests())
	})
	s.Run("issues exactly one call carrying all ids", func() {
		deleted, err := s.client.BulkDelete(context.Background(), IPAddresses, []int64{1, 2, 3})
		s.Require().NoError(err)
		s.True(deleted)
		requests := s.MockServer.Requests()
		s.Require().Len(requests, 1)
		s.Equal(http.MethodDelete, requests[0].Method)
		s.JSONEq(`[{"id":1},{"id":2},{"id":3}]`, requests[0].Body)
	})
}

func (s *RestClientSuite) TestNetworkError() {
	s.MockServer.Close()
	_, err := s.client.Get(context.Background(), Sites, nil)
	var networkErr *NetworkError
	s.Require().ErrorAs(err, &networkErr)
	s.Equal(http.MethodGet, networkErr.Method)
}

func (s *RestClientSuite) TestRemoteErrorForInvalidToken() {
	s.client = test.Must(NewRestClient(Options{URL: s.MockServer.URL(), Token: "wrong"}))
	_, err := s.client.Get(context.Background(), Sites, nil)
	var remoteErr *RemoteError
	s.Require().ErrorAs(err, &remoteErr)
	s.Equal(http.StatusForbidden, remoteErr.StatusCode)
	s.Contains(remoteErr.Error(), "Invalid token")
}

func (s *RestClientSuite) TestRequestObserver() {
	var calls atomic.Int32
	var lastStatus atomic.Int32
	s.client = test.Must(NewRestClient(Options{URL: s.MockServer.URL(), Token: s.MockServer.Token},
		WithRequestObserver(func(_ context.Context, method, path string, statusCode int, _ time.Duration) {
			calls.Add(1)
			lastStatus.Store(int32(statusCode))
		})))
	_, _ = s.client.GetByID(context.Background(), Racks, 5)
	s.Equal(int32(1), calls.Load())
	s.Equal(int32(http.StatusNotFound), lastStatus.Load())
}

func (s *RestClientSuite) TestRateLimit() {
	s.client = test.Must(NewRestClient(Options{URL: s.MockServer.URL(), Token: s.MockServer.Token, RequestsPerSecond: 1}))
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, _ = s.client.Get(ctx, Sites, nil)
	_, err := s.client.Get(ctx, Sites, nil)
	var networkErr *NetworkError
	s.Require().ErrorAs(err, &networkErr, "second request should exceed the limiter wait budget")
	s.Len(s.MockServer.Requests(), 1)
}

func (s *RestClientSuite) TestRemoteErrorBodyIsTruncated() {
	// the cut falls inside a two byte rune
	body := `{"detail":"` + strings.Repeat("é", maxErrorBodyLength) + `"}`
	s.MockServer.HandleJSON(http.MethodGet, "/api/dcim/sites/", http.StatusBadRequest, body)
	_, err := s.client.Get(context.Background(), Sites, nil)
	var remoteErr *RemoteError
	s.Require().ErrorAs(err, &remoteErr)
	s.Run("keeps valid UTF-8", func() {
		s.True(utf8.ValidString(remoteErr.Body))
	})
	s.Run("marks the truncation", func() {
		s.True(strings.HasSuffix(remoteErr.Body, "..."))
		s.LessOrEqual(len(remoteErr.Body), maxErrorBodyLength+len("..."))
		s.Greater(len(remoteErr.Body), maxErrorBodyLength-utf8.UTFMax)
	})
}

func (s *RestClientSuite) TestTruncateUTF8() {
	s.Equal("short", truncateUTF8("short", 10))
	s.Equal("ab", truncateUTF8("abé", 3))
	s.Equal("abé", truncateUTF8("abéd", 4))
	s.Equal("", truncateUTF8("€", 2))
}

func TestRestClient(t *testing.T) {
	suite.Run(t, new(RestClientSuite))
}
