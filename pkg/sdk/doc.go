// Package speechagg provides a Go client for the precomputed speech summaries
// stored in Redis by the speechagg batch job.
//
// # Reading summaries
//
//	client, _ := speechagg.New(ctx, speechagg.WithRedis("localhost:6379", ""))
//	defer client.Close()
//	sum, _ := client.Summary(ctx, speechagg.Sessions, "19/42")
//	for _, t := range sum.NLPAggregation.Topics {
//	    fmt.Println(t.Label, t.AverageScore)
//	}
//	speakers, _ := client.Values(ctx, speechagg.Speakers)
//
// # Refreshing summaries
//
//	report, _ := client.Run(ctx, speechagg.Sessions, speechagg.Topics)
//	fmt.Println(report.OK())
package speechagg
