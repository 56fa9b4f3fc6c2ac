// Package enum 提供开放枚举（open enum）的运行时支持。
//
// 开放枚举由一组按声明顺序排列的已命名枚举项和一个兜底枚举项（默认名为 Unknown）组成。
// 每个已命名枚举项绑定一个表示值（string、整数、浮点数），任何未匹配的表示值都会被
// 原样保存在兜底枚举项中，因此表示值与枚举之间的转换总是可逆的：
//
//	ToRepr(From(v)) == v
//
// 本包有两种用法。第一种是直接使用泛型容器 [Enum]，通过一个定义类型给出枚举项表：
//
//	type fruitDef struct{}
//
//	func (fruitDef) Cases() []enum.Case[string] {
//		return []enum.Case[string]{
//			enum.C("Apple", "Apple"),
//			enum.C("Banana", "Banana"),
//		}
//	}
//
//	type Fruit = enum.Enum[fruitDef, string]
//
//	f := enum.From[fruitDef]("Durian") // Unknown("Durian")
//
// 第二种是由 openenum 生成器（@OpenEnum 注解）生成具体类型，生成代码复用本包的
// 序列化辅助函数（MarshalJSON、DecodeYAML、Scan 等）和 [UnrepresentableValueError]。
//
// 序列化时输出的始终是 ToRepr 的结果，反序列化时先解码表示值再按相同规则分类，
// 未知值不会导致反序列化失败。
package enum
