package auth

import "fmt"

// PrintSetupInstructions prints how to obtain the credentials the pipeline needs
func PrintSetupInstructions() {
	fmt.Println("Credential Setup")
	fmt.Println("================")
	fmt.Println()
	fmt.Println("The pipeline needs two credential pairs: one for the object store")
	fmt.Println("holding the dataset, one for the Foursquare venue API.")
	fmt.Println()
	fmt.Println("Object store (S3):")
	fmt.Println("  1. Create an IAM user with read/write access to the dataset bucket")
	fmt.Println("  2. Under Security credentials, create an access key for that user")
	fmt.Println("  3. Note the access key ID and secret access key")
	fmt.Println()
	fmt.Println("Foursquare:")
	fmt.Println("  1. Create an app at https://foursquare.com/developers/apps")
	fmt.Println("  2. Note the client ID and client secret shown on the app page")
	fmt.Println()
	fmt.Println("Then either run:")
	fmt.Println()
	fmt.Println("  untappd-data auth login")
	fmt.Println()
	fmt.Println("to store them in the system keyring, or export them directly:")
	fmt.Println()
	fmt.Println("  export untappd_access_key_id=AKIA...")
	fmt.Println("  export untappd_secret_access_key=...")
	fmt.Println("  export foursquare_client_id=...")
	fmt.Println("  export foursquare_client_secret=...")
	fmt.Println()
	fmt.Println("Environment variables always win over stored profiles.")
}
