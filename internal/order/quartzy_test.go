package order

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Client", func() {
	var (
		server *ghttp.Server
		client *Client
		cfg    Config
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		client = NewClient("test-token", server.URL())
		cfg = Config{LabID: "lab-1", TypeID: "type-1", Currency: "CNY"}
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("SubmitAll", func() {
		When("the request list is empty", func() {
			It("returns an empty result list and issues zero calls", func() {
				results := client.SubmitAll(context.Background(), nil)
				Expect(results).To(BeEmpty())
				Expect(server.ReceivedRequests()).To(BeEmpty())
			})
		})

		When("every row succeeds", func() {
			BeforeEach(func() {
				server.AppendHandlers(
					ghttp.CombineHandlers(
						ghttp.VerifyRequest("POST", "/order-requests"),
						ghttp.VerifyHeaderKV("Access-Token", "test-token"),
						ghttp.VerifyContentType("application/json"),
						// Re-buffer the body so it stays readable from
						// ReceivedRequests() after the handler returns.
						func(w http.ResponseWriter, r *http.Request) {
							b, err := io.ReadAll(r.Body)
							Expect(err).NotTo(HaveOccurred())
							r.Body = io.NopCloser(bytes.NewReader(b))
						},
						ghttp.RespondWith(201, `{"id":"req-1"}`),
					),
					ghttp.CombineHandlers(
						ghttp.VerifyRequest("POST", "/order-requests"),
						ghttp.RespondWith(201, `{"id":"req-2"}`),
					),
				)
			})

			It("returns one raw response per row, in order", func() {
				rows := []DisplayRow{
					{Name: "first", Date: "2024-01-01"},
					{Name: "second", Date: "2024-01-01"},
				}
				results := client.SubmitAll(context.Background(), MapAll(rows, cfg))
				Expect(results).To(HaveLen(2))
				Expect(string(results[0])).To(MatchJSON(`{"id":"req-1"}`))
				Expect(string(results[1])).To(MatchJSON(`{"id":"req-2"}`))
				Expect(server.ReceivedRequests()).To(HaveLen(2))
			})

			It("serializes the outbound request shape", func() {
				rows := []DisplayRow{
					{Name: "Tube", CatalogNumber: "A1", Quantity: 2, Unit: "500uL", Price: 10.0, Vendor: "NEB", Date: "2024-03-01"},
				}
				client.SubmitAll(context.Background(), MapAll(rows[:1], cfg))

				body := server.ReceivedRequests()[0]
				var sent map[string]any
				Expect(json.NewDecoder(body.Body).Decode(&sent)).NotTo(HaveOccurred())
				Expect(sent["lab_id"]).To(Equal("lab-1"))
				Expect(sent["vendor_name"]).To(Equal("NEB"))
				Expect(sent["catalog_number"]).To(Equal("A1"))
				Expect(sent["notes"]).To(Equal("Date: 2024-03-01, comment: , unit: 500uL"))
				price := sent["price"].(map[string]any)
				Expect(price["amount"]).To(Equal("1000"))
				Expect(price["currency"]).To(Equal("CNY"))
			})
		})

		When("the middle row of three fails", func() {
			BeforeEach(func() {
				server.AppendHandlers(
					ghttp.RespondWith(201, `{"id":"req-1"}`),
					ghttp.RespondWith(422, `{"error":"invalid vendor"}`),
					ghttp.RespondWith(201, `{"id":"req-3"}`),
				)
			})

			It("still submits and returns all three rows", func() {
				rows := []DisplayRow{
					{Name: "one", Date: "2024-01-01"},
					{Name: "two", Date: "2024-01-01"},
					{Name: "three", Date: "2024-01-01"},
				}
				results := client.SubmitAll(context.Background(), MapAll(rows, cfg))
				Expect(results).To(HaveLen(3))
				Expect(string(results[0])).To(MatchJSON(`{"id":"req-1"}`))
				Expect(string(results[1])).To(MatchJSON(`{"error":"invalid vendor"}`))
				Expect(string(results[2])).To(MatchJSON(`{"id":"req-3"}`))
				Expect(server.ReceivedRequests()).To(HaveLen(3))
			})
		})

		When("a response body is not JSON", func() {
			BeforeEach(func() {
				server.AppendHandlers(
					ghttp.RespondWith(200, `<html>gateway error</html>`),
				)
			})

			It("captures a synthesized error payload at that row", func() {
				results := client.SubmitAll(context.Background(), MapAll([]DisplayRow{{Name: "one"}}, cfg))
				Expect(results).To(HaveLen(1))
				var payload map[string]string
				Expect(json.Unmarshal(results[0], &payload)).NotTo(HaveOccurred())
				Expect(payload["error"]).To(ContainSubstring("unparsable response body"))
			})
		})

		When("the server is unreachable", func() {
			It("captures the transport error as that row's result", func() {
				server.Close()
				results := client.SubmitAll(context.Background(), MapAll([]DisplayRow{{Name: "one"}}, cfg))
				Expect(results).To(HaveLen(1))
				var payload map[string]string
				Expect(json.Unmarshal(results[0], &payload)).NotTo(HaveOccurred())
				Expect(payload["error"]).NotTo(BeEmpty())
			})
		})
	})
})
