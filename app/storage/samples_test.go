package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/amck/mlmodels/lib/dataset"
)

func sample(label int, bits string) dataset.Sample {
	f, err := dataset.FromBits(bits)
	if err != nil {
		panic(err)
	}
	return dataset.Sample{Label: label, Features: f}
}

func (s *StorageTestSuite) TestNewSamples() {
	for _, db := range s.getTestDB() {
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			defer db.Exec("DROP TABLE samples")

			res, err := NewSamples(context.Background(), db)
			s.Require().NoError(err)
			s.NotNil(res)

			// second init works on existing table
			res, err = NewSamples(context.Background(), db)
			s.Require().NoError(err)
			s.NotNil(res)
		})
	}

	s.Run("nil db connection", func() {
		res, err := NewSamples(context.Background(), nil)
		s.Error(err)
		s.Nil(res)
	})
}

func (s *StorageTestSuite) TestSamples_Add() {
	ctx := context.Background()
	for _, db := range s.getTestDB() {
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			samples, err := NewSamples(ctx, db)
			s.Require().NoError(err)
			defer db.Exec("DROP TABLE samples")

			tests := []struct {
				name    string
				origin  SampleOrigin
				sample  dataset.Sample
				wantErr string
			}{
				{name: "valid preset", origin: SampleOriginPreset, sample: sample(0, "101")},
				{name: "valid user", origin: SampleOriginUser, sample: sample(1, "011")},
				{name: "duplicate is kept", origin: SampleOriginPreset, sample: sample(0, "101")},
				{name: "invalid origin", origin: "invalid", sample: sample(0, "1"), wantErr: "invalid sample origin"},
				{name: "origin any", origin: SampleOriginAny, sample: sample(0, "1"), wantErr: "can't use origin 'any'"},
				{name: "no features", origin: SampleOriginUser, sample: dataset.Sample{Label: 1}, wantErr: "no features"},
				{name: "negative label", origin: SampleOriginUser, sample: sample(-1, "1"), wantErr: "negative label"},
			}

			for _, tt := range tests {
				s.Run(tt.name, func() {
					err := samples.Add(ctx, tt.origin, tt.sample)
					if tt.wantErr != "" {
						s.Require().Error(err)
						s.Contains(err.Error(), tt.wantErr)
						return
					}
					s.NoError(err)
				})
			}

			res, err := samples.Read(ctx, SampleOriginAny)
			s.Require().NoError(err)
			s.Equal([]dataset.Sample{sample(0, "101"), sample(1, "011"), sample(0, "101")}, res)

			res, err = samples.Read(ctx, SampleOriginUser)
			s.Require().NoError(err)
			s.Equal([]dataset.Sample{sample(1, "011")}, res)
		})
	}
}

func (s *StorageTestSuite) TestSamples_Delete() {
	ctx := context.Background()
	for _, db := range s.getTestDB() {
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			samples, err := NewSamples(ctx, db)
			s.Require().NoError(err)
			defer db.Exec("DROP TABLE samples")

			s.Require().NoError(samples.Add(ctx, SampleOriginUser, sample(1, "11")))
			s.Require().NoError(samples.Add(ctx, SampleOriginUser, sample(1, "11")))
			s.Require().NoError(samples.Add(ctx, SampleOriginPreset, sample(1, "11")))
			s.Require().NoError(samples.Add(ctx, SampleOriginPreset, sample(0, "00")))

			s.Run("delete one copy of a sample", func() {
				s.Require().NoError(samples.DeleteSample(ctx, SampleOriginUser, sample(1, "11")))
				res, err := samples.Read(ctx, SampleOriginUser)
				s.Require().NoError(err)
				s.Len(res, 1)
				res, err = samples.Read(ctx, SampleOriginPreset)
				s.Require().NoError(err)
				s.Len(res, 2, "preset copies untouched")
			})

			s.Run("delete missing sample", func() {
				err := samples.DeleteSample(ctx, SampleOriginUser, sample(0, "00"))
				s.Require().Error(err)
				s.Contains(err.Error(), "sample not found")
			})

			stats, err := samples.Stats(ctx)
			s.Require().NoError(err)
			s.Equal(&SamplesStats{Total: 3, Preset: 2, User: 1, ByLabel: map[int]int{0: 1, 1: 2}}, stats)
		})
	}
}

func (s *StorageTestSuite) TestSamples_Import() {
	ctx := context.Background()
	for _, db := range s.getTestDB() {
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			samples, err := NewSamples(ctx, db)
			s.Require().NoError(err)
			defer db.Exec("DROP TABLE samples")

			s.Require().NoError(samples.Add(ctx, SampleOriginPreset, sample(0, "000")))
			s.Require().NoError(samples.Add(ctx, SampleOriginUser, sample(1, "111")))

			s.Run("append", func() {
				stats, err := samples.Import(ctx, SampleOriginPreset, strings.NewReader("# comment\n1,1,0,1\n0,0,0,1\n"), false)
				s.Require().NoError(err)
				s.Equal(&SamplesStats{Total: 4, Preset: 3, User: 1, ByLabel: map[int]int{0: 2, 1: 2}}, stats)
			})

			s.Run("with cleanup", func() {
				stats, err := samples.Import(ctx, SampleOriginPreset, strings.NewReader("1,1,1,1"), true)
				s.Require().NoError(err)
				s.Equal(&SamplesStats{Total: 2, Preset: 1, User: 1, ByLabel: map[int]int{1: 2}}, stats)
			})

			s.Run("broken input imports nothing", func() {
				_, err := samples.Import(ctx, SampleOriginPreset, strings.NewReader("1,1,1,1\nbroken\n"), true)
				s.Require().Error(err)
				s.Contains(err.Error(), "can't parse samples")
				stats, err := samples.Stats(ctx)
				s.Require().NoError(err)
				s.Equal(2, stats.Total)
			})

			s.Run("invalid args", func() {
				_, err := samples.Import(ctx, SampleOriginAny, strings.NewReader("1,1"), false)
				s.Error(err)
				_, err = samples.Import(ctx, "bad", strings.NewReader("1,1"), false)
				s.Error(err)
				_, err = samples.Import(ctx, SampleOriginUser, nil, false)
				s.Error(err)
				_, err = samples.Import(ctx, SampleOriginUser, strings.NewReader("-1,1"), false)
				s.Require().Error(err)
				s.Contains(err.Error(), "negative label")
			})
		})
	}
}

func (s *StorageTestSuite) TestSamples_Iterator() {
	ctx := context.Background()
	for _, db := range s.getTestDB() {
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			samples, err := NewSamples(ctx, db)
			s.Require().NoError(err)
			defer db.Exec("DROP TABLE samples")

			for i := range 5 {
				s.Require().NoError(samples.Add(ctx, SampleOriginPreset, sample(i%2, "10")))
			}

			it, err := samples.Iterator(ctx, SampleOriginAny)
			s.Require().NoError(err)
			labels := []int{}
			for smpl := range it {
				labels = append(labels, smpl.Label)
			}
			s.Equal([]int{0, 1, 0, 1, 0}, labels)

			cctx, cancel := context.WithCancel(ctx)
			it, err = samples.Iterator(cctx, SampleOriginAny)
			s.Require().NoError(err)
			count := 0
			for range it {
				count++
				if count == 2 {
					cancel()
				}
			}
			s.Equal(2, count, "stops after cancel")

			_, err = samples.Iterator(ctx, "bad")
			s.Error(err)
		})
	}
}

func (s *StorageTestSuite) TestSamples_Concurrent() {
	ctx := context.Background()
	for _, db := range s.getTestDB() {
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			samples, err := NewSamples(ctx, db)
			s.Require().NoError(err)
			defer db.Exec("DROP TABLE samples")

			var wg sync.WaitGroup
			for i := range 20 {
				wg.Add(2)
				go func() {
					defer wg.Done()
					s.NoError(samples.Add(ctx, SampleOriginUser, sample(i%3, "101")))
				}()
				go func() {
					defer wg.Done()
					_, err := samples.Read(ctx, SampleOriginAny)
					s.NoError(err)
				}()
			}
			wg.Wait()

			stats, err := samples.Stats(ctx)
			s.Require().NoError(err)
			s.Equal(20, stats.Total)
		})
	}
}

func (s *StorageTestSuite) TestSampleUpdater() {
	ctx := context.Background()
	for _, db := range s.getTestDB() {
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			samples, err := NewSamples(ctx, db)
			s.Require().NoError(err)
			defer db.Exec("DROP TABLE samples")
			s.Require().NoError(samples.Add(ctx, SampleOriginPreset, sample(0, "01")))

			upd := NewSampleUpdater(samples, time.Second)
			s.Require().NoError(upd.Append(ctx, sample(1, "11")))
			s.Require().NoError(upd.Append(ctx, sample(0, "10")))

			res, err := upd.Samples(ctx)
			s.Require().NoError(err)
			s.Equal([]dataset.Sample{sample(1, "11"), sample(0, "10")}, res, "only user samples")

			s.Require().NoError(upd.Remove(ctx, sample(1, "11")))
			s.Error(upd.Remove(ctx, sample(0, "01")), "preset sample can't be removed")

			noTimeout := NewSampleUpdater(samples, 0)
			res, err = noTimeout.Samples(ctx)
			s.Require().NoError(err)
			s.Equal([]dataset.Sample{sample(0, "10")}, res)

			stats, err := upd.Stats(ctx)
			s.Require().NoError(err)
			s.Equal(&SamplesStats{Total: 2, Preset: 1, User: 1, ByLabel: map[int]int{0: 2}}, stats)

			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err = noTimeout.Samples(cctx)
			s.Error(err, "canceled read is an error, not a short list")
		})
	}
}
