package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestHTTPClient_CurrentUser(t *testing.T) {
	Convey("Given a platform API serving the identity read", t, func() {
		var gotAuth, gotAccept string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotAccept = r.Header.Get("Accept")
			if r.URL.Path != "/users/me" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"id": "u-1",
				"tenant_id": "t-1",
				"email": "head@demo-university.ac.uk",
				"full_name": "Head of Quality",
				"role": "admin",
				"is_active": true,
				"email_verified": true,
				"created_at": "2024-09-01T08:00:00Z"
			}`))
		}))
		defer srv.Close()

		client := NewHTTPClient(srv.URL + "/")

		Convey("When the current user is fetched", func() {
			user, err := client.CurrentUser(context.Background(), "token-abc")

			Convey("Then the identity should be decoded", func() {
				So(err, ShouldBeNil)
				So(user, ShouldNotBeNil)
				So(user.ID, ShouldEqual, "u-1")
				So(user.TenantID, ShouldEqual, "t-1")
				So(user.Email, ShouldEqual, "head@demo-university.ac.uk")
				So(user.Role, ShouldEqual, "admin")
				So(user.IsActive, ShouldBeTrue)
			})

			Convey("And the bearer token should be forwarded", func() {
				So(gotAuth, ShouldEqual, "Bearer token-abc")
				So(gotAccept, ShouldEqual, "application/json")
			})
		})
	})
}

func TestHTTPClient_Assessments(t *testing.T) {
	Convey("Given a platform API serving the assessment list", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/assessments" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[
				{"id": "a-1", "academic_year": "2023-24", "status": "scored",
				 "overall_score": 71.5,
				 "created_at": "2023-10-01T09:00:00Z", "updated_at": "2024-01-15T10:00:00Z"},
				{"id": "a-2", "academic_year": "2024-25", "status": "in_progress",
				 "created_at": "2024-10-01T09:00:00Z", "updated_at": "2024-10-02T09:00:00Z"}
			]`))
		}))
		defer srv.Close()

		client := NewHTTPClient(srv.URL)

		Convey("When the list is fetched", func() {
			assessments, err := client.Assessments(context.Background(), "token-abc")

			Convey("Then both items should be decoded in upstream order", func() {
				So(err, ShouldBeNil)
				So(assessments, ShouldHaveLength, 2)
				So(assessments[0].ID, ShouldEqual, "a-1")
				So(assessments[0].Status.HasScore(), ShouldBeTrue)
				So(assessments[0].OverallScore, ShouldNotBeNil)
				So(*assessments[0].OverallScore, ShouldEqual, 71.5)
				So(assessments[1].ID, ShouldEqual, "a-2")
				So(assessments[1].OverallScore, ShouldBeNil)
			})
		})
	})
}

func TestHTTPClient_ScoresAndBenchmarks(t *testing.T) {
	Convey("Given a platform API serving score and benchmark detail", t, func() {
		var paths []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			paths = append(paths, r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			switch r.URL.Path {
			case "/assessments/a-1/scores":
				_, _ = w.Write([]byte(`{
					"assessment_id": "a-1",
					"overall_score": 71.5,
					"overall_max_score": 100,
					"overall_percentage": 71.5,
					"theme_scores": [
						{"theme_id": "th-1", "theme_name": "Academic Support",
						 "theme_code": "AS", "score": 18, "max_score": 25, "percentage": 72}
					]
				}`))
			case "/benchmarks/compare/a-1":
				_, _ = w.Write([]byte(`{
					"academic_year": "2023-24",
					"country": "UK",
					"metrics": [
						{"metric_name": "overall", "percentile_10": 40, "percentile_25": 52,
						 "percentile_50": 63, "percentile_75": 74, "percentile_90": 85,
						 "sample_size": 112, "institution_value": 71.5}
					]
				}`))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer srv.Close()

		client := NewHTTPClient(srv.URL)

		Convey("When scores are fetched for an assessment", func() {
			report, err := client.AssessmentScores(context.Background(), "token-abc", "a-1")

			Convey("Then the report should be decoded with its themes", func() {
				So(err, ShouldBeNil)
				So(report.AssessmentID, ShouldEqual, "a-1")
				So(report.OverallPercentage, ShouldEqual, 71.5)
				So(report.ThemeScores, ShouldHaveLength, 1)
				So(report.ThemeScores[0].ThemeCode, ShouldEqual, "AS")
			})
		})

		Convey("When benchmarks are fetched for an assessment", func() {
			comparison, err := client.CompareBenchmarks(context.Background(), "token-abc", "a-1")

			Convey("Then the peer distribution should be decoded", func() {
				So(err, ShouldBeNil)
				So(comparison.AcademicYear, ShouldEqual, "2023-24")
				So(comparison.Metrics, ShouldHaveLength, 1)
				So(comparison.Metrics[0].Percentile50, ShouldEqual, 63)
				So(*comparison.Metrics[0].InstitutionValue, ShouldEqual, 71.5)
				So(paths, ShouldContain, "/benchmarks/compare/a-1")
			})
		})
	})
}

func TestHTTPClient_ErrorMapping(t *testing.T) {
	Convey("Given a platform API in various failure modes", t, func() {
		status := http.StatusOK
		body := `{}`
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}))
		defer srv.Close()

		client := NewHTTPClient(srv.URL)

		Convey("When the upstream returns 401", func() {
			status = http.StatusUnauthorized
			_, err := client.CurrentUser(context.Background(), "expired")

			Convey("Then the error should map to ErrUnauthorized", func() {
				So(errors.Is(err, ErrUnauthorized), ShouldBeTrue)
			})
		})

		Convey("When the upstream returns 404", func() {
			status = http.StatusNotFound
			_, err := client.AssessmentScores(context.Background(), "token", "missing")

			Convey("Then the error should map to ErrNotFound", func() {
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the upstream returns 503", func() {
			status = http.StatusServiceUnavailable
			_, err := client.Assessments(context.Background(), "token")

			Convey("Then the error should map to ErrUpstreamStatus", func() {
				So(errors.Is(err, ErrUpstreamStatus), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "503")
			})
		})

		Convey("When the upstream returns malformed JSON", func() {
			status = http.StatusOK
			body = `{"id": "u-1",`
			_, err := client.CurrentUser(context.Background(), "token")

			Convey("Then the error should map to ErrDecodeResponse", func() {
				So(errors.Is(err, ErrDecodeResponse), ShouldBeTrue)
			})
		})
	})
}

func TestHTTPClient_Transport(t *testing.T) {
	Convey("Given an unreachable upstream", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		srv.Close()

		client := NewHTTPClient(srv.URL, WithTimeout(200*time.Millisecond))

		Convey("When any read is attempted", func() {
			_, err := client.Assessments(context.Background(), "token")

			Convey("Then a transport error should surface without a sentinel", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, ErrUnauthorized), ShouldBeFalse)
				So(errors.Is(err, ErrUpstreamStatus), ShouldBeFalse)
			})
		})
	})

	Convey("Given a request context that is already canceled", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		client := NewHTTPClient(srv.URL)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("When a read is attempted", func() {
			_, err := client.Assessments(ctx, "token")

			Convey("Then the cancellation should surface", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}
