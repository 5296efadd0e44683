package inventory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/de-tools/fleet-compliance/pkg/models/domain"
	"github.com/de-tools/fleet-compliance/pkg/monitoring"
	"github.com/de-tools/fleet-compliance/pkg/retrypolicy"
	"github.com/rs/zerolog"
)

// EC2API is the part of the EC2 client used to list instances and images.
type EC2API interface {
	ec2.DescribeInstancesAPIClient
	DescribeImages(ctx context.Context, params *ec2.DescribeImagesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error)
}

// ec2Fetcher treats regions as AWS regions. Credentials come from the AWS default chain, so
// the bearer token is not used.
type ec2Fetcher struct {
	newClient func(region string) EC2API
	policy    retrypolicy.Policy

	mu      sync.Mutex
	clients map[string]EC2API
}

func NewEC2Fetcher(ctx context.Context, policy retrypolicy.Policy) (Fetcher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	return NewEC2FetcherWithClients(func(region string) EC2API {
		return ec2.NewFromConfig(cfg, func(o *ec2.Options) {
			o.Region = region
		})
	}, policy), nil
}

func NewEC2FetcherWithClients(newClient func(region string) EC2API, policy retrypolicy.Policy) Fetcher {
	return &ec2Fetcher{
		newClient: newClient,
		policy:    policy,
		clients:   make(map[string]EC2API),
	}
}

func (f *ec2Fetcher) client(region string) EC2API {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[region]
	if !ok {
		c = f.newClient(region)
		f.clients[region] = c
	}
	return c
}

func (f *ec2Fetcher) ListServers(ctx context.Context, region, _ string) ([]domain.ServerRecord, error) {
	client := f.client(region)

	var servers []domain.ServerRecord
	err := f.policy.Do(ctx, "list_servers", func(ctx context.Context) error {
		servers = nil
		paginator := ec2.NewDescribeInstancesPaginator(client, &ec2.DescribeInstancesInput{
			Filters: []types.Filter{
				{
					Name:   aws.String("instance-state-name"),
					Values: []string{"running"},
				},
			},
		})
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return fmt.Errorf("failed to describe EC2 instances: %w", err)
			}
			for _, reservation := range page.Reservations {
				for _, instance := range reservation.Instances {
					servers = append(servers, instanceRecord(instance))
				}
			}
		}
		return nil
	})
	if err != nil {
		monitoring.UpstreamCalls.WithLabelValues("list_servers", "failure").Inc()
		return nil, err
	}
	monitoring.UpstreamCalls.WithLabelValues("list_servers", "success").Inc()

	zerolog.Ctx(ctx).Info().Int("count", len(servers)).Str("region", region).Msg("fetched servers")
	return servers, nil
}

func (f *ec2Fetcher) ResolveImageName(ctx context.Context, region, imageID, _ string) (string, bool) {
	client := f.client(region)

	var out *ec2.DescribeImagesOutput
	err := f.policy.Do(ctx, "resolve_image", func(ctx context.Context) error {
		var err error
		out, err = client.DescribeImages(ctx, &ec2.DescribeImagesInput{ImageIds: []string{imageID}})
		return err
	})
	if err != nil {
		monitoring.UpstreamCalls.WithLabelValues("resolve_image", "failure").Inc()
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("image_id", imageID).
			Str("region", region).
			Msg("failed to describe image")
		return "", false
	}
	monitoring.UpstreamCalls.WithLabelValues("resolve_image", "success").Inc()

	if len(out.Images) == 0 || out.Images[0].Name == nil {
		return "", false
	}
	return aws.ToString(out.Images[0].Name), true
}

func instanceRecord(instance types.Instance) domain.ServerRecord {
	name := aws.ToString(instance.InstanceId)
	for _, tag := range instance.Tags {
		if aws.ToString(tag.Key) == "Name" {
			name = aws.ToString(tag.Value)
			break
		}
	}
	var imageID *string
	if instance.ImageId != nil && *instance.ImageId != "" {
		imageID = instance.ImageId
	}
	return domain.ServerRecord{Name: name, ImageID: imageID}
}
