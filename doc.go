// Package s3website deploys a local directory to an S3 website bucket.
//
// A deploy compares the upload directory against the objects under the
// target's prefix and only touches what differs: local-only files are
// uploaded, changed files are overwritten and remote-only objects are
// deleted. Failed paths get a bounded number of retry passes and partial
// success is reported rather than treated as an error.
//
// Example usage:
//
//	client, err := s3website.New(s3website.WithRegion("eu-west-1"))
//	if err != nil {
//	    return err
//	}
//
//	target := s3website.NewTarget("www.example.com", "./public",
//	    s3website.WithExclude("drafts/**"),
//	    s3website.WithCacheControl("max-age=300"),
//	)
//
//	report, err := client.Deploy(ctx, target)
//	if err != nil {
//	    return err
//	}
//	s3website.WriteReport(os.Stdout, report)
//
// Targets can also be read from a .s3-website.json file with the config
// package.
package s3website
