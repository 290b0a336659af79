package receipt

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/TTTPOB/auto-quartzy/internal/order"
	"github.com/TTTPOB/auto-quartzy/internal/scanning"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("SaveScan", func() {
		var (
			scan *Scan
			err  error
		)

		BeforeEach(func() {
			scan = &Scan{
				ID: "test-id",
				Receipt: scanning.Receipt{
					Date:        "2024-03-01",
					TotalAmount: 100.0,
					Items: []scanning.Item{
						{Name: "Tube", Quantity: 2, Unit: "500uL", Price: 10.0, StockID: "A1", Vendor: "NEB"},
					},
				},
				Filename:    "test-id_receipt.jpg",
				ContentType: "image/jpeg",
				CreatedAt:   time.Now(),
			}
		})

		JustBeforeEach(func() {
			err = db.SaveScan(scan)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should save the scan to the archive", func() {
				saved, getErr := db.GetScan("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.ID).To(Equal("test-id"))
				Expect(saved.Receipt.Items).To(HaveLen(1))
				Expect(saved.Receipt.Items[0].Vendor).To(Equal("NEB"))
			})
		})
	})

	Describe("GetScan", func() {
		When("the scan does not exist", func() {
			It("returns the error", func() {
				_, err := db.GetScan("nonexistent")
				Expect(err).To(MatchError(errors.New("scan not found: nonexistent")))
			})
		})
	})

	Describe("ListScans", func() {
		var (
			scans []*Scan
			err   error
		)

		JustBeforeEach(func() {
			scans, err = db.ListScans()
		})

		When("scans exist", func() {
			BeforeEach(func() {
				Expect(db.SaveScan(&Scan{ID: "id1", CreatedAt: time.Now()})).NotTo(HaveOccurred())
				Expect(db.SaveScan(&Scan{ID: "id2", CreatedAt: time.Now()})).NotTo(HaveOccurred())
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return all scans", func() {
				Expect(scans).To(HaveLen(2))
			})
		})

		When("no scans exist", func() {
			It("should return an empty list", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(scans).To(BeEmpty())
			})
		})
	})

	Describe("DeleteScan", func() {
		When("the scan exists", func() {
			BeforeEach(func() {
				Expect(db.SaveScan(&Scan{ID: "test-id", CreatedAt: time.Now()})).NotTo(HaveOccurred())
			})

			It("removes the scan from the archive", func() {
				Expect(db.DeleteScan("test-id")).NotTo(HaveOccurred())
				_, getErr := db.GetScan("test-id")
				Expect(getErr).To(HaveOccurred())
			})
		})

		When("the scan does not exist", func() {
			It("should not return an error", func() {
				Expect(db.DeleteScan("nonexistent")).NotTo(HaveOccurred())
			})
		})
	})

	Describe("SaveSubmission", func() {
		It("round-trips rows and raw results", func() {
			submission := &Submission{
				ID: "sub-1",
				Rows: []order.DisplayRow{
					{Name: "Tube", CatalogNumber: "A1", Quantity: 2, Unit: "500uL", Price: 10.0, Vendor: "NEB", Date: "2024-03-01"},
				},
				Results: []json.RawMessage{
					json.RawMessage(`{"id":"created"}`),
					json.RawMessage(`{"error":"invalid vendor"}`),
				},
				CreatedAt: time.Now(),
			}
			Expect(db.SaveSubmission(submission)).NotTo(HaveOccurred())

			saved, err := db.GetSubmission("sub-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Rows).To(HaveLen(1))
			Expect(saved.Rows[0].Name).To(Equal("Tube"))
			Expect(saved.Results).To(HaveLen(2))
			Expect(string(saved.Results[1])).To(MatchJSON(`{"error":"invalid vendor"}`))
		})
	})

	Describe("GetSubmission", func() {
		When("the submission does not exist", func() {
			It("returns the error", func() {
				_, err := db.GetSubmission("nonexistent")
				Expect(err).To(MatchError(errors.New("submission not found: nonexistent")))
			})
		})
	})

	Describe("ListSubmissions", func() {
		When("submissions exist", func() {
			BeforeEach(func() {
				Expect(db.SaveSubmission(&Submission{ID: "s1", CreatedAt: time.Now()})).NotTo(HaveOccurred())
				Expect(db.SaveSubmission(&Submission{ID: "s2", CreatedAt: time.Now()})).NotTo(HaveOccurred())
			})

			It("returns all submissions", func() {
				submissions, err := db.ListSubmissions()
				Expect(err).NotTo(HaveOccurred())
				Expect(submissions).To(HaveLen(2))
			})
		})

		When("no submissions exist", func() {
			It("returns an empty list", func() {
				submissions, err := db.ListSubmissions()
				Expect(err).NotTo(HaveOccurred())
				Expect(submissions).To(BeEmpty())
			})
		})
	})

	Describe("Close", func() {
		It("should not return an error", func() {
			err := db.Close()
			Expect(err).NotTo(HaveOccurred())
			db = nil
		})
	})
})
